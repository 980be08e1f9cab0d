package media

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mediakit/internal/database"
)

// SaveTags saves the given tag names for the media type provided,
// ignoring any which already exist (determined based on the (name,
// media_type) uniqueness constraint). This function will return back
// all the tags referenced by the names, regardless of whether they
// were already present in the database.
func (store *Store) SaveTags(db database.Queryable, mediaType Type, names []string) ([]*Tag, error) {
	if len(names) == 0 {
		return []*Tag{}, nil
	}

	tags := make([]*Tag, len(names))
	for k, name := range names {
		tags[k] = &Tag{ID: uuid.New(), Name: name, MediaType: mediaType}
	}

	if _, err := db.NamedExec(
		`INSERT INTO tag(id, name, media_type) VALUES (:id, :name, :media_type) ON CONFLICT(name, media_type) DO NOTHING`,
		tags,
	); err != nil {
		return nil, fmt.Errorf("failed to insert bulk tags: %w", err)
	}

	var results []*Tag
	if err := db.Select(&results,
		`SELECT * FROM tag WHERE media_type=$1 AND name = any($2)`,
		mediaType, pq.Array(names),
	); err != nil {
		return nil, fmt.Errorf("failed to select saved tags: %w", err)
	}

	return results, nil
}

// ReplaceMediaTagAssociations clears the tag associations of the media
// provided and replaces them with associations to the given tags.
//
// NB: This query will FAIL if any of the given tags do not have a row
// in the tag table.
func (store *Store) ReplaceMediaTagAssociations(db database.Queryable, mediaID uuid.UUID, tags []*Tag) error {
	if _, err := db.Exec(`DELETE FROM media_tags WHERE media_id=$1`, mediaID); err != nil {
		return err
	}

	if len(tags) == 0 {
		return nil
	}

	type tagAssoc struct {
		MediaID uuid.UUID `db:"media_id"`
		TagID   uuid.UUID `db:"tag_id"`
	}
	assocs := make([]tagAssoc, len(tags))
	for k, v := range tags {
		assocs[k] = tagAssoc{mediaID, v.ID}
	}

	_, err := db.NamedExec(`
		INSERT INTO media_tags(media_id, tag_id)
		VALUES(:media_id, :tag_id)
		ON CONFLICT(media_id, tag_id) DO NOTHING
	`, assocs)

	return err
}

// GetTagsForMedia returns the tags currently associatted with the
// media provided.
func (store *Store) GetTagsForMedia(db database.Queryable, mediaID uuid.UUID) ([]*Tag, error) {
	var results []*Tag
	if err := db.Select(&results, `
		SELECT tag.* FROM media_tags
		INNER JOIN tag
		ON tag.id = media_tags.tag_id
		WHERE media_tags.media_id = $1
	`, mediaID); err != nil {
		return nil, err
	}

	return results, nil
}

// FirstTagMatching returns the first tag matching the exact (name,
// media_type) pair provided, or nil if no such tag exists.
func (store *Store) FirstTagMatching(db database.Queryable, name string, mediaType Type) (*Tag, error) {
	var result Tag
	if err := db.Get(&result, `SELECT * FROM tag WHERE name=$1 AND media_type=$2 LIMIT 1`, name, mediaType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &result, nil
}
