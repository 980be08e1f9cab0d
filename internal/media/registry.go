package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

type (
	// Definition describes one registered media subtype: the metadata
	// fields it reads from/writes to its source bytes, which of those
	// fields is the multi-value one that maps to tags, and the file
	// extensions used to recognise it during ingestion.
	Definition struct {
		Type            Type
		WantedFields    []string
		MultiValueField string
		Extensions      []string
	}

	// Registry is the closed, startup-time table of known media
	// subtypes. It replaces any notion of a mutable global type
	// registry; construct one, then hand it to whatever needs to
	// dispatch on media type.
	Registry struct {
		defs map[Type]Definition
	}
)

// NewRegistry constructs a registry from the provided definitions.
// Duplicate types are rejected.
func NewRegistry(defs ...Definition) (*Registry, error) {
	registry := &Registry{defs: make(map[Type]Definition, len(defs))}
	for _, def := range defs {
		if _, exists := registry.defs[def.Type]; exists {
			return nil, fmt.Errorf("media type '%s' registered twice", def.Type)
		}

		registry.defs[def.Type] = def
	}

	return registry, nil
}

// DefaultRegistry returns a registry containing the three built-in
// media subtypes and their metadata field allow-lists.
func DefaultRegistry() *Registry {
	registry, err := NewRegistry(
		Definition{
			Type:            ImageType,
			WantedFields:    []string{"title", "description", "creator", "contributor", "publisher", "rights", "date"},
			MultiValueField: "",
			Extensions:      []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"},
		},
		Definition{
			Type:            AudioType,
			WantedFields:    []string{"title", "artist", "album", "genres", "year", "country", "bpm", "lyricist", "composer", "arranger", "label", "lyrics", "comments"},
			MultiValueField: "genres",
			Extensions:      []string{".mp3", ".flac", ".ogg", ".m4a", ".wav"},
		},
		Definition{
			Type:            VideoType,
			WantedFields:    []string{"title", "author", "genres", "year", "country", "label", "comments"},
			MultiValueField: "genres",
			Extensions:      []string{".mp4", ".mkv", ".webm", ".avi", ".mov"},
		},
	)
	if err != nil {
		panic(err)
	}

	return registry
}

// Get returns the definition for the type provided, if registered.
func (r *Registry) Get(mediaType Type) (Definition, bool) {
	def, ok := r.defs[mediaType]
	return def, ok
}

// Known reports whether the type provided is a registered subtype.
func (r *Registry) Known(mediaType Type) bool {
	_, ok := r.defs[mediaType]
	return ok
}

// TypeForFilename inspects the extension of the filename provided and
// returns the registered subtype claiming it, if any.
func (r *Registry) TypeForFilename(filename string) (Type, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, def := range r.defs {
		for _, known := range def.Extensions {
			if known == ext {
				return def.Type, true
			}
		}
	}

	return "", false
}
