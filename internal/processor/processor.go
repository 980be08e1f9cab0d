package processor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mediakit/internal/media"
	"mediakit/pkg/logger"
)

var log = logger.Get("Processor")

type (
	// tagWriter re-embeds entity metadata into encoded rendition bytes
	// so generated files are not metadata-stripped.
	tagWriter interface {
		WriteTags(ctx context.Context, source []byte, tags map[string]any) ([]byte, error)
	}

	// Pipeline generates the configured renditions of an image entity's
	// source bytes, writing each to disk.
	Pipeline struct {
		config Config
		tagger tagWriter
	}
)

// New creates a rendition pipeline with the config provided. The
// tagger is optional; when nil, renditions are written without
// metadata re-embedding.
func New(config Config, tagger tagWriter) *Pipeline {
	return &Pipeline{config: config, tagger: tagger}
}

// Process decodes the entity's source bytes once, then generates every
// configured rendition concurrently. Renditions fail independently: an
// unknown transformation mode, an encode failure or a disk write
// failure skips that rendition only, and the call as a whole fails only
// when not a single rendition succeeded.
//
// The returned properties contain the renditions that were actually
// written to disk. If no rendition parameters are configured at all,
// the call is a no-op.
func (pipeline *Pipeline) Process(ctx context.Context, m *media.Media, source []byte, now time.Time) (media.Properties, error) {
	if len(pipeline.config.Params) == 0 {
		log.Warnf("No rendition parameters configured, skipping processing of %s\n", m)
		return nil, nil
	}

	plan, err := ComputeRenditionPlan(pipeline.config, m, now)
	if err != nil {
		return nil, err
	}

	img, err := DecodeImage(source)
	if err != nil {
		return nil, err
	}

	var (
		mutex      sync.Mutex
		wg         sync.WaitGroup
		failures   []error
		properties = make(media.Properties, len(plan))
	)
	for _, rendition := range plan {
		wg.Add(1)
		go func(rendition media.Rendition) {
			defer wg.Done()

			if err := pipeline.generate(ctx, m, img, rendition); err != nil {
				log.Errorf("Failed to generate rendition '%s' of %s: %v\n", rendition.Name, m, err)

				mutex.Lock()
				failures = append(failures, fmt.Errorf("rendition '%s': %w", rendition.Name, err))
				mutex.Unlock()

				return
			}

			mutex.Lock()
			properties[rendition.Name] = rendition
			mutex.Unlock()
		}(rendition)
	}
	wg.Wait()

	if len(properties) == 0 && len(failures) > 0 {
		return nil, fmt.Errorf("all renditions failed: %w", errors.Join(failures...))
	}

	log.Infof("Generated %d/%d renditions of %s\n", len(properties), len(plan), m)
	return properties, nil
}

// generate applies the rendition's transform to the decoded source
// image and writes the encoded result to the rendition's path.
func (pipeline *Pipeline) generate(ctx context.Context, m *media.Media, img image.Image, rendition media.Rendition) error {
	switch rendition.Mode {
	case media.ResizeMode, media.CropMode, media.PreserveMode:
	default:
		return &media.ConfigError{Reason: fmt.Sprintf("unknown transformation mode '%s'", rendition.Mode)}
	}

	transformed := ApplyTransform(img, rendition.Mode, rendition.Width, rendition.Height)
	encoded, err := EncodeImage(transformed, rendition.Format)
	if err != nil {
		return err
	}

	if pipeline.tagger != nil && len(m.Meta) > 0 {
		tagged, err := pipeline.tagger.WriteTags(ctx, encoded, m.Meta)
		if err != nil {
			log.Warnf("Failed to re-embed metadata in rendition '%s' of %s: %v\n", rendition.Name, m, err)
		} else {
			encoded = tagged
		}
	}

	if err := os.MkdirAll(filepath.Dir(rendition.Path), 0o755); err != nil {
		return &media.StorageWriteError{Path: rendition.Path, Err: err}
	}

	if err := os.WriteFile(rendition.Path, encoded, 0o644); err != nil {
		return &media.StorageWriteError{Path: rendition.Path, Err: err}
	}

	return nil
}
