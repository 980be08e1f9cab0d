package processor_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mediakit/internal/media"
	"mediakit/internal/processor"
)

var planDate = time.Date(2026, time.March, 7, 9, 30, 0, 0, time.UTC)

func planConfig(params ...map[string]any) processor.Config {
	return processor.Config{
		PathPattern: "{prefix}/{year}/{month}/{day}/{filename}-{name}.{extension}",
		URLPattern:  "https://cdn.example.com/{filename}-{name}.{extension}",
		Prefix:      "/srv/media",
		Params:      params,
	}
}

func Test_ComputeRenditionPlan_OneDescriptorPerParamEntry(t *testing.T) {
	t.Parallel()

	config := planConfig(
		map[string]any{"name": "thumb", "width": 100, "height": 100, "file_format": "jpeg", "transformation_mode": "crop"},
		map[string]any{"name": "full", "width": 800, "height": 600, "file_format": "png", "transformation_mode": "preserve"},
	)

	m := &media.Media{Type: media.ImageType, Filename: "sunrise.jpg"}
	plan, err := processor.ComputeRenditionPlan(config, m, planDate)
	assert.Nil(t, err)
	assert.Len(t, plan, 2)

	thumb := plan["thumb"]
	assert.Equal(t, media.Rendition{
		Name:      "thumb",
		Width:     100,
		Height:    100,
		Path:      "/srv/media/2026/3/7/sunrise-thumb.jpg",
		URL:       "https://cdn.example.com/sunrise-thumb.jpg",
		Format:    "jpeg",
		Mode:      media.CropMode,
		Extension: "jpg",
	}, thumb)

	full := plan["full"]
	assert.Equal(t, "png", full.Format)
	assert.Equal(t, "png", full.Extension)
	assert.Equal(t, media.PreserveMode, full.Mode)
	assert.Equal(t, "/srv/media/2026/3/7/sunrise-full.png", full.Path)
}

func Test_ComputeRenditionPlan_MissingConfigurationRejected(t *testing.T) {
	t.Parallel()

	param := map[string]any{"name": "thumb", "width": 10, "height": 10, "file_format": "png", "transformation_mode": "resize"}

	tests := []struct {
		name   string
		config processor.Config
	}{
		{"empty path pattern", processor.Config{URLPattern: "x", Params: []map[string]any{param}}},
		{"empty url pattern", processor.Config{PathPattern: "x", Params: []map[string]any{param}}},
		{"no params", processor.Config{PathPattern: "x", URLPattern: "y"}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := processor.ComputeRenditionPlan(test.config, &media.Media{Filename: "a.jpg"}, planDate)

			configErr := &media.ConfigError{}
			assert.True(t, errors.As(err, &configErr))
		})
	}
}

func Test_ComputeRenditionPlan_MalformedParamsRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		param map[string]any
	}{
		{"missing name", map[string]any{"width": 10, "height": 10, "file_format": "png"}},
		{"zero dims", map[string]any{"name": "x", "width": 0, "height": 10, "file_format": "png"}},
		{"missing format", map[string]any{"name": "x", "width": 10, "height": 10}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := processor.ComputeRenditionPlan(planConfig(test.param), &media.Media{Filename: "a.jpg"}, planDate)

			configErr := &media.ConfigError{}
			assert.True(t, errors.As(err, &configErr))
		})
	}
}

func Test_ComputeRenditionPlan_DuplicateNamesRejected(t *testing.T) {
	t.Parallel()

	param := map[string]any{"name": "thumb", "width": 10, "height": 10, "file_format": "png", "transformation_mode": "resize"}
	_, err := processor.ComputeRenditionPlan(planConfig(param, param), &media.Media{Filename: "a.jpg"}, planDate)

	configErr := &media.ConfigError{}
	assert.True(t, errors.As(err, &configErr))
	assert.Contains(t, configErr.Reason, "duplicate rendition name")
}

func Test_ComputeRenditionPlan_WeaklyTypedParamsAccepted(t *testing.T) {
	t.Parallel()

	// Dimensions loaded from YAML can arrive as strings
	param := map[string]any{"name": "thumb", "width": "120", "height": "90", "file_format": "jpeg", "transformation_mode": "resize"}
	plan, err := processor.ComputeRenditionPlan(planConfig(param), &media.Media{Filename: "a.jpg"}, planDate)
	assert.Nil(t, err)
	assert.Equal(t, 120, plan["thumb"].Width)
	assert.Equal(t, 90, plan["thumb"].Height)
}
