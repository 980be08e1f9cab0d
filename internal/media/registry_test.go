package media_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mediakit/internal/media"
)

func Test_DefaultRegistry_KnowsAllMediaTypes(t *testing.T) {
	t.Parallel()
	registry := media.DefaultRegistry()

	for _, mediaType := range []media.Type{media.ImageType, media.AudioType, media.VideoType} {
		assert.True(t, registry.Known(mediaType), "expected registry to know type %s", mediaType)

		def, ok := registry.Get(mediaType)
		assert.True(t, ok)
		assert.Equal(t, mediaType, def.Type)
		assert.NotEmpty(t, def.WantedFields)
	}

	assert.False(t, registry.Known(media.Type("document")))
}

func Test_DefaultRegistry_MultiValueFields(t *testing.T) {
	t.Parallel()
	registry := media.DefaultRegistry()

	image, _ := registry.Get(media.ImageType)
	assert.Empty(t, image.MultiValueField)

	audio, _ := registry.Get(media.AudioType)
	assert.Equal(t, "genres", audio.MultiValueField)
	assert.Contains(t, audio.WantedFields, "genres")

	video, _ := registry.Get(media.VideoType)
	assert.Equal(t, "genres", video.MultiValueField)
}

func Test_TypeForFilename_MatchesOnExtension(t *testing.T) {
	t.Parallel()
	registry := media.DefaultRegistry()

	tests := []struct {
		filename string
		expected media.Type
		known    bool
	}{
		{"holiday.JPG", media.ImageType, true},
		{"/drop/dir/track.flac", media.AudioType, true},
		{"clip.mkv", media.VideoType, true},
		{"notes.txt", "", false},
		{"no-extension", "", false},
	}

	for _, test := range tests {
		mediaType, ok := registry.TypeForFilename(test.filename)
		assert.Equal(t, test.known, ok, "filename %s", test.filename)
		if test.known {
			assert.Equal(t, test.expected, mediaType)
		}
	}
}

func Test_NewRegistry_RejectsDuplicateTypes(t *testing.T) {
	t.Parallel()

	_, err := media.NewRegistry(
		media.Definition{Type: media.ImageType, WantedFields: []string{"title"}},
		media.Definition{Type: media.ImageType, WantedFields: []string{"title"}},
	)
	assert.Error(t, err)
}

func Test_ExpandPattern_LeavesUnknownTokensIntact(t *testing.T) {
	t.Parallel()

	expanded := media.ExpandPattern("{prefix}/img/{year}/{filename}.{extension}", map[string]string{
		"prefix":    "/tmp/m",
		"year":      "2026",
		"filename":  "sample",
		"extension": "jpg",
	})
	assert.Equal(t, "/tmp/m/img/2026/sample.jpg", expanded)

	partial := media.ExpandPattern("{prefix}/{mystery}", map[string]string{"prefix": "/tmp"})
	assert.Equal(t, "/tmp/{mystery}", partial)
}
