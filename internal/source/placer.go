package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mediakit/internal/media"
)

// collisionRetries bounds how many disambiguated names the placer
// tries before giving up and overwriting.
const collisionRetries = 3

type (
	// Placement is the result of storage placement. For the 'database'
	// strategy the caller persists the body into the entity's file
	// column; for 'disk' the body has been written to DiskPath.
	Placement struct {
		Strategy media.StorageStrategy
		DiskPath string

		// Filename is the name the bytes were placed under; it differs
		// from the requested one when a collision was disambiguated.
		Filename string
	}

	// Placer decides where the source bytes of a new entity live,
	// expanding the configured destination pattern and writing to disk
	// when the strategy demands it.
	Placer struct{}
)

func NewPlacer() *Placer { return &Placer{} }

// Place applies the storage strategy provided. The pattern is expanded
// with {prefix, year, month, day, filename, extension} using the date
// provided; the destination directory is created if absent, and the
// file is written in full with overwrite semantics. Name collisions on
// disk are avoided by retrying with a random-suffixed filename.
func (placer *Placer) Place(strategy media.StorageStrategy, pattern string, prefix string, body []byte, filename string, now time.Time) (*Placement, error) {
	switch strategy {
	case media.DatabaseStorage:
		// Nothing to do here; the bytes will be saved on the entity's
		// file column by the caller.
		return &Placement{Strategy: media.DatabaseStorage, Filename: filename}, nil
	case media.DiskStorage:
		return placer.placeOnDisk(pattern, prefix, body, filename, now)
	default:
		return nil, &media.ConfigError{Reason: fmt.Sprintf("unknown storage strategy '%s'", strategy)}
	}
}

func (placer *Placer) placeOnDisk(pattern string, prefix string, body []byte, filename string, now time.Time) (*Placement, error) {
	if pattern == "" {
		return nil, &media.ConfigError{Reason: "missing destination pattern"}
	}
	if prefix == "" {
		return nil, &media.ConfigError{Reason: "missing path prefix"}
	}
	if filename == "" {
		return nil, &media.ConfigError{Reason: "missing filename"}
	}

	destination := expandDestination(pattern, prefix, filename, now)
	for attempt := 0; attempt < collisionRetries; attempt++ {
		if _, err := os.Stat(destination); err != nil {
			break
		}

		filename = Slugify(filename, true)
		destination = expandDestination(pattern, prefix, filename, now)
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return nil, &media.StorageWriteError{Path: destination, Err: err}
	}

	if err := os.WriteFile(destination, body, 0o644); err != nil {
		return nil, &media.StorageWriteError{Path: destination, Err: err}
	}

	return &Placement{Strategy: media.DiskStorage, DiskPath: destination, Filename: filename}, nil
}

func expandDestination(pattern string, prefix string, filename string, now time.Time) string {
	name := filename
	extension := ""
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		name = filename[:idx]
		extension = filename[idx+1:]
	}

	return media.ExpandPattern(pattern, map[string]string{
		"prefix":    prefix,
		"year":      strconv.Itoa(now.Year()),
		"month":     strconv.Itoa(int(now.Month())),
		"day":       strconv.Itoa(now.Day()),
		"filename":  name,
		"extension": extension,
	})
}
