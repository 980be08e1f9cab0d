package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// ExifToolCodec reads and writes media tags by shelling out to the
// `exiftool` binary, streaming the source bytes over stdin so no
// temporary files are needed for extraction.
type ExifToolCodec struct {
	binaryPath string
}

func NewExifToolCodec(binaryPath string) *ExifToolCodec {
	if binaryPath == "" {
		binaryPath = "exiftool"
	}

	return &ExifToolCodec{binaryPath: binaryPath}
}

// ReadTags extracts the requested fields from the source bytes. Field
// names are matched case-insensitively against exiftool's output keys,
// and the returned map uses the caller's field names.
func (codec *ExifToolCodec) ReadTags(ctx context.Context, source []byte, fields []string) (map[string]any, error) {
	args := []string{"-json", "-charset", "utf8"}
	for _, field := range fields {
		args = append(args, "-"+field)
	}
	args = append(args, "-")

	cmd := exec.CommandContext(ctx, codec.binaryPath, args...)
	cmd.Stdin = bytes.NewReader(source)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("exiftool extraction failed: %w", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(output, &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse exiftool output: %w", err)
	} else if len(decoded) == 0 {
		return map[string]any{}, nil
	}

	lowered := make(map[string]any, len(decoded[0]))
	for key, value := range decoded[0] {
		lowered[strings.ToLower(key)] = value
	}

	tags := make(map[string]any, len(fields))
	for _, field := range fields {
		if value, ok := lowered[strings.ToLower(field)]; ok {
			tags[field] = value
		}
	}

	return tags, nil
}

// WriteTags embeds the tags provided into the source bytes and returns
// the tagged copy. List values are written as a single comma-delimited
// tag so a subsequent read round-trips to the same token list.
func (codec *ExifToolCodec) WriteTags(ctx context.Context, source []byte, tags map[string]any) ([]byte, error) {
	args := []string{"-charset", "utf8"}
	for field, value := range tags {
		args = append(args, fmt.Sprintf("-%s=%s", field, stringifyTagValue(value)))
	}
	args = append(args, "-o", "-", "-")

	cmd := exec.CommandContext(ctx, codec.binaryPath, args...)
	cmd.Stdin = bytes.NewReader(source)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("exiftool write failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

func stringifyTagValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}

		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(value)
	}
}
