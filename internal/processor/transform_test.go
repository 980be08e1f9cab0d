package processor_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"mediakit/internal/media"
	"mediakit/internal/processor"
)

func solidImage(width int, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	return img
}

func dims(img image.Image) (int, int) {
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func Test_Resize_IgnoresAspectRatio(t *testing.T) {
	t.Parallel()

	out := processor.ApplyTransform(solidImage(400, 300), media.ResizeMode, 120, 90)
	w, h := dims(out)
	assert.Equal(t, 120, w)
	assert.Equal(t, 90, h)

	stretched := processor.ApplyTransform(solidImage(400, 300), media.ResizeMode, 50, 200)
	w, h = dims(stretched)
	assert.Equal(t, 50, w)
	assert.Equal(t, 200, h)
}

func Test_Crop_YieldsExactTargetDimensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		srcW, srcH int
		targetW    int
		targetH    int
	}{
		{"landscape source", 400, 200, 100, 100},
		{"portrait source", 200, 400, 100, 100},
		{"square source", 300, 300, 120, 80},
		{"wide target on portrait", 200, 500, 150, 50},
		{"upscaling crop", 50, 40, 200, 100},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			out := processor.ApplyTransform(solidImage(test.srcW, test.srcH), media.CropMode, test.targetW, test.targetH)
			w, h := dims(out)
			assert.Equal(t, test.targetW, w)
			assert.Equal(t, test.targetH, h)
		})
	}
}

func Test_Preserve_FitsWithinBoxWithoutUpscaling(t *testing.T) {
	t.Parallel()

	// Larger than box: scaled down, aspect ratio kept
	out := processor.ApplyTransform(solidImage(800, 600), media.PreserveMode, 400, 400)
	w, h := dims(out)
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)

	// Height-bound source
	tall := processor.ApplyTransform(solidImage(600, 800), media.PreserveMode, 400, 400)
	w, h = dims(tall)
	assert.Equal(t, 300, w)
	assert.Equal(t, 400, h)

	// Already inside the box: untouched
	small := processor.ApplyTransform(solidImage(100, 50), media.PreserveMode, 400, 400)
	w, h = dims(small)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func Test_EncodeDecode_RoundTripsSupportedFormats(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"jpeg", "png", "gif", "bmp"} {
		encoded, err := processor.EncodeImage(solidImage(20, 10), format)
		assert.Nil(t, err, "format %s", format)

		decoded, err := processor.DecodeImage(encoded)
		assert.Nil(t, err, "format %s", format)

		w, h := dims(decoded)
		assert.Equal(t, 20, w)
		assert.Equal(t, 10, h)
	}

	_, err := processor.EncodeImage(solidImage(2, 2), "webp")
	assert.Error(t, err)
}
