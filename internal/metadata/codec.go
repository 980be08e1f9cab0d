package metadata

import "context"

// Codec is the low-level tag reading/writing service the synchronizer
// delegates to. Implementations are format-aware (EXIF/XMP for images,
// ID3/Vorbis for audio, and so on); the synchronizer itself only deals
// in field names and values.
type Codec interface {
	// ReadTags extracts the requested fields from the source bytes.
	// Fields absent from the source are simply missing from the
	// returned map.
	ReadTags(ctx context.Context, source []byte, fields []string) (map[string]any, error)

	// WriteTags re-serialises the provided fields into the source
	// bytes, returning the tagged copy. The input slice is not
	// modified.
	WriteTags(ctx context.Context, source []byte, tags map[string]any) ([]byte, error)
}
