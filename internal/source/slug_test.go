package source_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mediakit/internal/source"
)

func Test_Slugify_NormalisesFilenames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lower-cases and hyphenates", "My Holiday Photo.JPG", "my-holiday-photo.jpg"},
		{"collapses runs of separators", "a__-  b.png", "a-b.png"},
		{"extension after last dot only", "archive.tar.gz", "archive-tar.gz"},
		{"no extension", "README", "readme"},
		{"strips leading and trailing separators", "--cool name--.mp3", "cool-name.mp3"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.expected, source.Slugify(test.input, false))
		})
	}
}

func Test_Slugify_IsDeterministic(t *testing.T) {
	t.Parallel()

	input := "Some Song (Live).flac"
	assert.Equal(t, source.Slugify(input, false), source.Slugify(input, false))
}

func Test_Slugify_RandomSuffixDisambiguates(t *testing.T) {
	t.Parallel()

	input := "sample.jpg"
	plain := source.Slugify(input, false)
	suffixed := source.Slugify(input, true)

	assert.Greater(t, len(suffixed), len(plain))
	assert.NotEqual(t, plain, suffixed)
	assert.NotEqual(t, input, suffixed)
	assert.Regexp(t, `^sample-\d{6}\.jpg$`, suffixed)
}
