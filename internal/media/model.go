package media

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type (
	// Type is the discriminator for the polymorphic media entity. The
	// set of known types is closed at startup via the Registry; an
	// entity's type is immutable once set.
	Type string

	// StorageStrategy governs whether the source bytes of an entity
	// live embedded in the record ('database') or on disk ('disk').
	StorageStrategy string

	// SourceField identifies which of the three source columns of an
	// entity is populated.
	SourceField int

	// TransformMode is the geometric transform applied when generating
	// a rendition from a source image.
	TransformMode string

	// Metadata is the free-form domain metadata extracted from (and
	// written back to) the entity's source bytes. Values are scalars,
	// except for the multi-value field (e.g. 'genres') which holds a
	// list of tokens.
	Metadata map[string]any

	// Properties holds the output of the transformation pipeline,
	// keyed by rendition name. It is replaced wholesale each time an
	// entity is processed.
	Properties map[string]Rendition

	// Rendition describes one generated variant of a source image:
	// its dimensions, where it was written, and how it was produced.
	Rendition struct {
		Name      string        `json:"name"`
		Width     int           `json:"width"`
		Height    int           `json:"height"`
		Path      string        `json:"path"`
		URL       string        `json:"url"`
		Format    string        `json:"file_format"`
		Mode      TransformMode `json:"transformation_mode"`
		Extension string        `json:"extension"`
	}

	// Media is the polymorphic record each part of the pipeline operates
	// on. Exactly one of File, FilePath and FileURL is populated once
	// the entity has been created.
	Media struct {
		ID         uuid.UUID
		Type       Type
		State      State
		File       []byte
		FilePath   string
		FileURL    string
		Filename   string
		Filesize   int64
		Meta       Metadata
		Properties Properties
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	// Tag is a named, media-type-scoped classification label. Tags are
	// shared between entities (many-to-many) and are created lazily the
	// first time a metadata field maps to a new tag name.
	Tag struct {
		ID        uuid.UUID `db:"id"`
		Name      string    `db:"name"`
		MediaType Type      `db:"media_type"`
		CreatedAt time.Time `db:"created_at"`
	}

	// CreateRequest carries the input of a media creation. At most one
	// of File, FileURL and FilePath may be set.
	CreateRequest struct {
		Type     Type
		File     []byte
		FileURL  string
		FilePath string
		Filename string
		Meta     Metadata
	}
)

const (
	ImageType Type = "image"
	AudioType Type = "audio"
	VideoType Type = "video"

	DatabaseStorage StorageStrategy = "database"
	DiskStorage     StorageStrategy = "disk"

	ResizeMode   TransformMode = "resize"
	CropMode     TransformMode = "crop"
	PreserveMode TransformMode = "preserve"
)

const (
	NoSourceField SourceField = iota
	FileField
	FilePathField
	FileURLField
)

// SourceField returns which of the three source columns of the entity
// is populated. If multiple are populated (which the creation path
// prevents), the precedence is file, then path, then URL.
func (m *Media) SourceField() SourceField {
	switch {
	case len(m.File) > 0:
		return FileField
	case m.FilePath != "":
		return FilePathField
	case m.FileURL != "":
		return FileURLField
	default:
		return NoSourceField
	}
}

func (m *Media) String() string {
	return fmt.Sprintf("Media{id=%s type=%s filename=%s state=%s}", m.ID, m.Type, m.Filename, m.State)
}

func (f SourceField) String() string {
	switch f {
	case FileField:
		return "file"
	case FilePathField:
		return "file_path"
	case FileURLField:
		return "file_url"
	default:
		return "none"
	}
}
