package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"mediakit/pkg/logger"
)

type (
	IngestItemState int

	// IngestItem tracks one newly discovered file through its journey
	// from detection to a persisted media entity.
	IngestItem struct {
		ID      uuid.UUID
		Path    string
		State   IngestItemState
		Trouble *Trouble

		// MediaID is set once ingestion succeeds and points at the
		// entity created for this file.
		MediaID *uuid.UUID
	}
)

const (
	Idle IngestItemState = iota
	ImportHold
	Ingesting
	Troubled
	Complete
)

// ingest creates a media entity for the item's file via the creator
// provided. Failures are classified into a Trouble so the caller can
// mark the item for manual resolution.
func (item *IngestItem) ingest(ctx context.Context, creator creator) error {
	log.Emit(logger.NEW, "Beginning ingestion of item %s\n", item)

	m, err := creator.CreateMediaFromPath(ctx, item.Path)
	if err != nil {
		return newTrouble(err)
	}

	log.Emit(logger.SUCCESS, "Ingested %s as %s\n", item, m)
	item.MediaID = &m.ID

	return nil
}

func (item *IngestItem) modtimeDiff() (*time.Duration, error) {
	itemInfo, err := os.Stat(item.Path)
	if err != nil {
		return nil, err
	}

	diff := time.Since(itemInfo.ModTime())
	return &diff, nil
}

func (item *IngestItem) String() string {
	return fmt.Sprintf("IngestItem{ID=%s state=%s}", item.ID, item.State)
}

func (s IngestItemState) String() string {
	switch s {
	case Idle:
		return fmt.Sprintf("IDLE[%d]", s)
	case ImportHold:
		return fmt.Sprintf("IMPORT_HOLD[%d]", s)
	case Ingesting:
		return fmt.Sprintf("INGESTING[%d]", s)
	case Troubled:
		return fmt.Sprintf("TROUBLED[%d]", s)
	case Complete:
		return fmt.Sprintf("COMPLETE[%d]", s)
	default:
		return fmt.Sprintf("UNKNOWN[%d]", s)
	}
}
