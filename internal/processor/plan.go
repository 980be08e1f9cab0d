package processor

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"mediakit/internal/media"
)

type (
	// Config controls how rendition plans are computed: the pattern the
	// destination path and URL of each rendition are expanded from, and
	// the declarative per-rendition parameters.
	Config struct {
		PathPattern string           `yaml:"path_pattern" env:"PROCESSOR_PATH_PATTERN"`
		URLPattern  string           `yaml:"url_pattern" env:"PROCESSOR_URL_PATTERN"`
		Prefix      string           `yaml:"prefix" env:"PROCESSOR_PREFIX"`
		Params      []map[string]any `yaml:"renditions"`
	}

	// renditionParam is the decoded form of one raw parameter entry.
	renditionParam struct {
		Name   string `mapstructure:"name"`
		Width  int    `mapstructure:"width"`
		Height int    `mapstructure:"height"`
		Format string `mapstructure:"file_format"`
		Mode   string `mapstructure:"transformation_mode"`
	}
)

// ComputeRenditionPlan expands the configured path/URL patterns once
// per declared parameter entry, yielding one rendition descriptor per
// entry keyed by name. The entity's current filename and the date
// provided drive the expansion, so renditions of the same entity land
// alongside each other.
//
// An unset pattern or an empty parameter list is a configuration
// error; the caller decides whether that aborts processing or makes it
// a no-op.
func ComputeRenditionPlan(config Config, m *media.Media, now time.Time) (media.Properties, error) {
	if config.PathPattern == "" {
		return nil, &media.ConfigError{Reason: "missing rendition path pattern"}
	} else if config.URLPattern == "" {
		return nil, &media.ConfigError{Reason: "missing rendition URL pattern"}
	} else if len(config.Params) == 0 {
		return nil, &media.ConfigError{Reason: "no rendition parameters configured"}
	}

	plan := make(media.Properties, len(config.Params))
	for k, raw := range config.Params {
		param, err := decodeParam(raw)
		if err != nil {
			return nil, &media.ConfigError{Reason: fmt.Sprintf("malformed rendition parameter entry #%d: %v", k, err)}
		}

		if _, exists := plan[param.Name]; exists {
			return nil, &media.ConfigError{Reason: fmt.Sprintf("duplicate rendition name '%s'", param.Name)}
		}

		extension := param.Format
		if extension == "jpeg" {
			extension = "jpg"
		}

		filename := strings.TrimSuffix(m.Filename, filepath.Ext(m.Filename))
		vars := map[string]string{
			"name":                param.Name,
			"width":               strconv.Itoa(param.Width),
			"height":              strconv.Itoa(param.Height),
			"extension":           extension,
			"file_format":         param.Format,
			"transformation_mode": param.Mode,
			"filename":            filename,
			"year":                strconv.Itoa(now.Year()),
			"month":               strconv.Itoa(int(now.Month())),
			"day":                 strconv.Itoa(now.Day()),
			"prefix":              config.Prefix,
		}

		plan[param.Name] = media.Rendition{
			Name:      param.Name,
			Width:     param.Width,
			Height:    param.Height,
			Path:      media.ExpandPattern(config.PathPattern, vars),
			URL:       media.ExpandPattern(config.URLPattern, vars),
			Format:    param.Format,
			Mode:      media.TransformMode(param.Mode),
			Extension: extension,
		}
	}

	return plan, nil
}

func decodeParam(raw map[string]any) (renditionParam, error) {
	var param renditionParam
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &param,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return param, err
	}

	if err := decoder.Decode(raw); err != nil {
		return param, err
	}

	if param.Name == "" {
		return param, fmt.Errorf("missing rendition name")
	} else if param.Width <= 0 || param.Height <= 0 {
		return param, fmt.Errorf("rendition '%s' has invalid dimensions %dx%d", param.Name, param.Width, param.Height)
	} else if param.Format == "" {
		return param, fmt.Errorf("rendition '%s' has no file format", param.Name)
	}

	return param, nil
}
