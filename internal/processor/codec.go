package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
)

// jpegQuality is applied to all JPEG rendition encodes.
const jpegQuality = 90

// DecodeImage decodes the source bytes into an in-memory image. The
// format is sniffed from the bytes themselves; JPEG, PNG, GIF and BMP
// sources are supported.
func DecodeImage(source []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to decode source image: %w", err)
	}

	log.Verbosef("Decoded %s source image of %dx%d\n", format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

// EncodeImage encodes the image provided in the requested format,
// returning the encoded bytes.
func EncodeImage(img image.Image, format string) ([]byte, error) {
	buffer := &bytes.Buffer{}

	switch format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(buffer, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode image as jpeg: %w", err)
		}
	case "png":
		if err := png.Encode(buffer, img); err != nil {
			return nil, fmt.Errorf("failed to encode image as png: %w", err)
		}
	case "gif":
		if err := gif.Encode(buffer, img, nil); err != nil {
			return nil, fmt.Errorf("failed to encode image as gif: %w", err)
		}
	case "bmp":
		if err := bmp.Encode(buffer, img); err != nil {
			return nil, fmt.Errorf("failed to encode image as bmp: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported image format '%s'", format)
	}

	return buffer.Bytes(), nil
}
