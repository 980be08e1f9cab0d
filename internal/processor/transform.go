package processor

import (
	"image"

	"golang.org/x/image/draw"

	"mediakit/internal/media"
)

// ApplyTransform dispatches to the geometric transform matching the
// mode provided, returning the transformed image. The caller is
// expected to have validated the mode already.
func ApplyTransform(img image.Image, mode media.TransformMode, width int, height int) image.Image {
	switch mode {
	case media.ResizeMode:
		return resize(img, width, height)
	case media.CropMode:
		return crop(img, width, height)
	case media.PreserveMode:
		return preserve(img, width, height)
	default:
		return img
	}
}

// resize scales the image to exactly (width, height) without
// preserving aspect ratio.
func resize(img image.Image, width int, height int) image.Image {
	return scaleTo(img, width, height)
}

// crop scales the image (preserving aspect ratio) so that it covers
// the target box, then center-crops the overflowing dimension. If the
// image is wider than (or as wide as) it is tall, scaling is driven by
// the target height and the width is cropped; otherwise scaling is
// driven by the target width and the height is cropped.
func crop(img image.Image, width int, height int) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	var scaledW, scaledH int
	if srcW >= srcH {
		scaledH = height
		scaledW = srcW * height / srcH
		if scaledW < width {
			scaledW = width
		}
	} else {
		scaledW = width
		scaledH = srcH * width / srcW
		if scaledH < height {
			scaledH = height
		}
	}

	scaled := scaleTo(img, scaledW, scaledH)

	offsetX := (scaledW - width) / 2
	offsetY := (scaledH - height) / 2

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(out, out.Bounds(), scaled, image.Pt(offsetX, offsetY), draw.Src)

	return out
}

// preserve scales the image down so it fits within (width, height),
// preserving aspect ratio. Images already inside the box are returned
// untouched (no upscaling).
func preserve(img image.Image, width int, height int) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	if srcW <= width && srcH <= height {
		return img
	}

	scaledW := width
	scaledH := srcH * width / srcW
	if scaledH > height {
		scaledH = height
		scaledW = srcW * height / srcH
	}

	if scaledW < 1 {
		scaledW = 1
	}
	if scaledH < 1 {
		scaledH = 1
	}

	return scaleTo(img, scaledW, scaledH)
}

func scaleTo(img image.Image, width int, height int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), draw.Over, nil)

	return out
}
