package media

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"mediakit/internal/database"
	"mediakit/pkg/logger"
)

var (
	ErrMediaNotFound = errors.New("media entity does not exist")

	log = logger.Get("MediaStore")
)

type (
	// mediaModel is the media table row. The JSONB columns are wrapped
	// in JsonColumn containers; we use a separate struct from the public
	// Media type to hide that detail from the rest of the code.
	mediaModel struct {
		ID         uuid.UUID                         `db:"id"`
		Type       Type                              `db:"media_type"`
		State      State                             `db:"state"`
		File       []byte                            `db:"file"`
		FilePath   string                            `db:"file_path"`
		FileURL    string                            `db:"file_url"`
		Filename   string                            `db:"filename"`
		Filesize   int64                             `db:"filesize"`
		Meta       database.JsonColumn[Metadata]     `db:"meta"`
		Properties database.JsonColumn[Properties]   `db:"properties"`
		CreatedAt  time.Time                         `db:"created_at"`
		UpdatedAt  time.Time                         `db:"updated_at"`
	}

	// Filter restricts the rows returned by ListMedia. Zero-valued
	// fields are ignored.
	Filter struct {
		Type  Type
		State State
	}

	Store struct{}
)

func NewStore() *Store { return &Store{} }

// SaveMedia upserts the provided entity. The media_type column is
// deliberately absent from the conflict clause as the type of an
// entity is immutable once set.
func (store *Store) SaveMedia(db database.Queryable, m *Media) error {
	model := toModel(m)
	_, err := db.NamedExec(`
		INSERT INTO media(id, media_type, state, file, file_path, file_url, filename, filesize, meta, properties, created_at, updated_at)
		VALUES(:id, :media_type, :state, :file, :file_path, :file_url, :filename, :filesize, :meta, :properties, current_timestamp, current_timestamp)
		ON CONFLICT(id) DO UPDATE SET
			state=EXCLUDED.state, file=EXCLUDED.file, file_path=EXCLUDED.file_path,
			file_url=EXCLUDED.file_url, filename=EXCLUDED.filename, filesize=EXCLUDED.filesize,
			meta=EXCLUDED.meta, properties=EXCLUDED.properties, updated_at=current_timestamp
	`, model)
	if err != nil {
		return fmt.Errorf("failed to save media %s: %w", m.ID, err)
	}

	return nil
}

// GetMedia searches for an existing entity with the PK ID provided.
func (store *Store) GetMedia(db database.Queryable, mediaID uuid.UUID) (*Media, error) {
	var model mediaModel
	if err := db.Get(&model, `SELECT * FROM media WHERE id=$1`, mediaID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMediaNotFound
		}

		return nil, err
	}

	return model.toMedia(), nil
}

// ListMedia returns all entities matching the filter provided,
// newest first.
func (store *Store) ListMedia(db database.Queryable, filter Filter) ([]*Media, error) {
	builder := squirrel.
		Select("*").
		From("media").
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	if filter.Type != "" {
		builder = builder.Where(squirrel.Eq{"media_type": filter.Type})
	}
	if filter.State != "" {
		builder = builder.Where(squirrel.Eq{"state": filter.State})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct list media query: %w", err)
	}

	var models []mediaModel
	if err := db.Select(&models, query, args...); err != nil {
		return nil, err
	}

	results := make([]*Media, len(models))
	for k, v := range models {
		results[k] = v.toMedia()
	}

	return results, nil
}

func (store *Store) DeleteMedia(db database.Queryable, mediaID uuid.UUID) error {
	if _, err := db.Exec(`DELETE FROM media WHERE id=$1`, mediaID); err != nil {
		return fmt.Errorf("failed to delete media %s: %w", mediaID, err)
	}

	return nil
}

// GetAllMediaSourcePaths returns all the on-disk source paths currently
// known, used by the ingestion service to skip files that have already
// been imported.
func (store *Store) GetAllMediaSourcePaths(db database.Queryable) ([]string, error) {
	paths := make([]string, 0)
	if err := db.Select(&paths, `SELECT file_path FROM media WHERE file_path <> ''`); err != nil {
		return nil, err
	}

	return paths, nil
}

func toModel(m *Media) *mediaModel {
	return &mediaModel{
		ID:         m.ID,
		Type:       m.Type,
		State:      m.State,
		File:       m.File,
		FilePath:   m.FilePath,
		FileURL:    m.FileURL,
		Filename:   m.Filename,
		Filesize:   m.Filesize,
		Meta:       database.NewJsonColumn(&m.Meta),
		Properties: database.NewJsonColumn(&m.Properties),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (model *mediaModel) toMedia() *Media {
	media := &Media{
		ID:        model.ID,
		Type:      model.Type,
		State:     model.State,
		File:      model.File,
		FilePath:  model.FilePath,
		FileURL:   model.FileURL,
		Filename:  model.Filename,
		Filesize:  model.Filesize,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}

	if meta := model.Meta.Get(); meta != nil {
		media.Meta = *meta
	}
	if properties := model.Properties.Get(); properties != nil {
		media.Properties = *properties
	}

	return media
}
