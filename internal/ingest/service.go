package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rjeczalik/notify"

	"mediakit/internal/event"
	"mediakit/internal/media"
	"mediakit/pkg/logger"
	"mediakit/pkg/worker"
)

var log = logger.Get("IngestServ")

type (
	creator interface {
		CreateMediaFromPath(ctx context.Context, path string) (*media.Media, error)
		GetKnownSourcePaths() []string
	}

	// ingestService is responsible for managing the automatic detection
	// and ingestion of files from the servers file system. The detected
	// files should be:
	// - Checked against a blacklist to ensure they should be processed
	// - Held until their modtime suggests any in-progress copy has finished
	// - Resolved, placed and persisted as new media entities
	ingestService struct {
		*sync.Mutex

		creator  creator
		eventBus event.EventCoordinator

		config           Config
		blacklist        []*regexp.Regexp
		items            []*IngestItem
		importHoldTimers map[uuid.UUID]*time.Timer
		workerPool       worker.WorkerPool
	}
)

// New creates a new IngestService, using the provided config for
// subsequent calls to 'Run'.
//
// The configs 'IngestPath' is validated to be an existing directory.
// If the directory is missing it will be created, if the path
// provided points to an existing FILE, an error is returned.
func New(config Config, creator creator, eventBus event.EventCoordinator) (*ingestService, error) {
	if info, err := os.Stat(config.IngestPath); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("ingestion path '%s' is not a directory", config.IngestPath)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(config.IngestPath, os.ModeDir|os.ModePerm); err != nil {
			return nil, fmt.Errorf("ingestion path '%s' could not be created: %w", config.IngestPath, err)
		}
	} else {
		return nil, fmt.Errorf("ingestion path '%s' could not be accessed: %w", config.IngestPath, err)
	}

	blacklist := make([]*regexp.Regexp, 0, len(config.Blacklist))
	for _, raw := range config.Blacklist {
		expr, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("blacklist expression '%s' is invalid: %w", raw, err)
		}

		blacklist = append(blacklist, expr)
	}

	service := &ingestService{
		Mutex:            &sync.Mutex{},
		creator:          creator,
		eventBus:         eventBus,
		config:           config,
		blacklist:        blacklist,
		items:            make([]*IngestItem, 0),
		importHoldTimers: make(map[uuid.UUID]*time.Timer),
		workerPool:       *worker.NewWorkerPool(),
	}

	for i := 0; i < config.IngestionParallelism; i++ {
		label := fmt.Sprintf("ingest-worker-%d", i)
		service.workerPool.PushWorker(worker.NewWorker(label, service.performItemIngest))
	}

	return service, nil
}

// Run is the main entry point of this service. It's responsible
// for listening to the OS file system and responding to change events,
// as well as regularly polling the file system irrespective of the
// watcher.
// To kill the service, the calling code should cancel the context
// provided.
func (service *ingestService) Run(ctx context.Context) error {
	fsNotifyChannel := make(chan notify.EventInfo, 32)
	if err := notify.Watch(filepath.Join(service.config.IngestPath, "..."), fsNotifyChannel, notify.Create, notify.Rename, notify.Write); err != nil {
		return fmt.Errorf("failed to watch ingest directory '%s': %w", service.config.IngestPath, err)
	}
	defer notify.Stop(fsNotifyChannel)

	forceIngestChannel := time.NewTicker(time.Second * time.Duration(service.config.ForceSyncSeconds)).C

	if err := service.workerPool.Start(); err != nil {
		return err
	}
	defer service.workerPool.Close()
	defer service.clearAllImportHoldTimers()

	service.DiscoverNewFiles(ctx)

	for {
		select {
		case <-fsNotifyChannel:
			service.DiscoverNewFiles(ctx)
		case <-forceIngestChannel:
			service.DiscoverNewFiles(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// performItemIngest is the worker function for the IngestService, which
// is called by the services WorkerPool.
// This function will claim the first IDLE item it finds and attempt to
// ingest it. If the ingestion fails with a Trouble, then it will be set
// on the item and it's state set to TROUBLED.
func (service *ingestService) performItemIngest(w worker.Worker) (bool, error) {
	item := service.claimIdleItem()
	if item == nil {
		return false, nil
	}

	if err := item.ingest(context.Background(), service.creator); err != nil {
		trbl := Trouble{}
		if errors.As(err, &trbl) {
			log.Warnf("Ingestion of %s failed: %v\n", item, err)
			item.Trouble = &trbl
			item.State = Troubled
			return true, nil
		}

		return false, err
	}

	item.State = Complete
	service.eventBus.Dispatch(event.IngestCompleteEvent, item.ID)

	return true, nil
}

// DiscoverNewFiles will scan the host file system at the path
// configured and check for items that need to be ingested (as
// in no database row for these items already exist, and
// no current item in this service represents this path).
// Any paths found that match with any configured blacklists will
// be ignored.
//
// Note: This function will take ownership of the mutex, and releases it when returning
func (service *ingestService) DiscoverNewFiles(_ context.Context) {
	service.Lock()
	defer service.Unlock()

	sourcePaths := service.creator.GetKnownSourcePaths()
	sourcePathsLookup := make(map[string]bool, len(sourcePaths))
	for _, path := range sourcePaths {
		sourcePathsLookup[path] = true
	}
	for _, item := range service.items {
		sourcePathsLookup[item.Path] = true
	}

	newItems, err := recursivelyWalkFileSystem(service.config.IngestPath, sourcePathsLookup)
	if err != nil {
		log.Emit(logger.FATAL, "file system polling failed: %s\n", err.Error())
		return
	}

	minModtimeAge := service.config.RequiredModTimeAgeDuration()
	dirty := false
	for itemPath, itemInfo := range newItems {
		if service.isBlacklisted(itemPath) {
			log.Debugf("Ignoring blacklisted path %s\n", itemPath)
			continue
		}

		itemID := uuid.New()
		timeDiff := time.Since(itemInfo.ModTime())

		itemState := ImportHold
		if timeDiff > minModtimeAge {
			dirty = true
			itemState = Idle
		}

		ingestItem := &IngestItem{
			ID:    itemID,
			Path:  itemPath,
			State: itemState,
		}

		service.items = append(service.items, ingestItem)
		if itemState == ImportHold {
			service.scheduleImportHoldTimer(itemID, minModtimeAge-timeDiff)
		}
	}

	if dirty {
		service.workerPool.WakeupWorkers()
	}
}

// RemoveIngest looks for an item with the ID provided in the services
// state, and removes it if it's found.
// This method *fails* if the item is currently 'INGESTING' as interrupting
// the ingestion is not possible.
// This method does not error if the itemID does not exist.
//
// Note: This function takes ownership of the mutex and releases it on return
func (service *ingestService) RemoveIngest(itemID uuid.UUID) error {
	service.Lock()
	defer service.Unlock()

	return service.removeIngest(itemID)
}

func (service *ingestService) removeIngest(itemID uuid.UUID) error {
	for k, v := range service.items {
		if v.ID == itemID {
			if v.State == Ingesting {
				return fmt.Errorf("cannot remove item %v as a worker is currently ingesting it", itemID)
			}

			service.items = append(service.items[:k], service.items[k+1:]...)
			return nil
		}
	}

	return nil
}

// GetIngest accepts the ID of an ingest item and attempts to find it
// in the services queue. If it cannot be found, nil is returned.
func (service *ingestService) GetIngest(itemID uuid.UUID) *IngestItem {
	for _, item := range service.items {
		if item.ID == itemID {
			return item
		}
	}

	return nil
}

// GetAllIngests returns all the IngestItems being processed
// by this service.
func (service *ingestService) GetAllIngests() []*IngestItem {
	return service.items
}

// ResolveTroubledIngest applies the resolution method provided to a
// TROUBLED item: a retry re-queues the item for ingestion, an abort
// removes it from the service entirely.
//
// Note: This function takes ownership of the mutex and releases it on return
func (service *ingestService) ResolveTroubledIngest(itemID uuid.UUID, method ResolutionType) error {
	service.Lock()
	defer service.Unlock()

	item := service.GetIngest(itemID)
	if item == nil {
		return ErrIngestNotFound
	} else if item.State != Troubled || item.Trouble == nil {
		return ErrNoTrouble
	}

	resolution, err := item.Trouble.GenerateResolution(method)
	if err != nil {
		return err
	}

	switch resolution.(type) {
	case *RetryResolution:
		item.Trouble = nil
		item.State = Idle
		service.workerPool.WakeupWorkers()
	case *AbortResolution:
		return service.removeIngest(itemID)
	}

	return nil
}

// evaluateItemHold accepts the ID of an item that is on IMPORT_HOLD,
// and checks it's modtime to see if the item can be moved on to
// the 'IDLE' state.
// If the item with the ID provided no longer exists, the method is a NO-OP.
// If the item exists, but it's source file no longer exists, the item is removed
// from the services state.
// If the item exists and it's source still does not meet modtime requirements,
// then a new timer will be scheduled to re-evaluate the item hold.
//
// Note: this function takes ownership of the mutex, and releases it when returning
func (service *ingestService) evaluateItemHold(id uuid.UUID) {
	service.Lock()
	defer service.Unlock()

	item := service.GetIngest(id)
	if item == nil || item.State != ImportHold {
		return
	}

	timeDiff, err := item.modtimeDiff()
	if err != nil {
		// Item's source file has gone away!
		service.removeIngest(id)
		return
	}

	thresholdModTime := service.config.RequiredModTimeAgeDuration()
	if *timeDiff < thresholdModTime {
		service.scheduleImportHoldTimer(id, thresholdModTime-*timeDiff)
		return
	}

	item.State = Idle
	service.workerPool.WakeupWorkers()
}

// scheduleImportHoldTimer will call evaluateItemHold for the item provided
// after the delay duration specified has elapsed. Any existing import hold timer
// for the item specified will be *cancelled* before the new timer is created.
func (service *ingestService) scheduleImportHoldTimer(id uuid.UUID, delay time.Duration) {
	service.clearImportHoldTimer(id)
	service.importHoldTimers[id] = time.AfterFunc(delay, func() {
		service.evaluateItemHold(id)
	})
}

// clearImportHoldTimer cancels and deletes the import hold timer associatted
// with the item ID specified.
func (service *ingestService) clearImportHoldTimer(id uuid.UUID) {
	if timer, ok := service.importHoldTimers[id]; ok {
		timer.Stop()
		delete(service.importHoldTimers, id)
	}
}

// clearAllImportHoldTimers cancels and deletes the import hold timers for
// all items.
func (service *ingestService) clearAllImportHoldTimers() {
	for key, timer := range service.importHoldTimers {
		timer.Stop()
		delete(service.importHoldTimers, key)
	}
}

// claimIdleItem will try and find an IDLE item in the ingest service,
// and set it's state to 'INGESTING' to prevent another
// worker from claiming it once the mutex lock is released.
//
// Note: This function takes ownership of the mutex, and releases it when returning
func (service *ingestService) claimIdleItem() *IngestItem {
	service.Lock()
	defer service.Unlock()

	for _, item := range service.items {
		if item.State == Idle {
			item.State = Ingesting
			return item
		}
	}

	return nil
}

func (service *ingestService) isBlacklisted(path string) bool {
	name := filepath.Base(path)
	for _, expr := range service.blacklist {
		if expr.MatchString(name) {
			return true
		}
	}

	return false
}

// recursivelyWalkFileSystem will walk the file system, starting at the directory provided,
// and construct a map of all the files inside (including any inside of nested directories).
// Files whose paths are included in the 'known' map will NOT be included in the result.
// The key of the returned map is the path, and the value contains the FileInfo
func recursivelyWalkFileSystem(rootDirPath string, known map[string]bool) (map[string]fs.FileInfo, error) {
	foundItems := make(map[string]fs.FileInfo, 0)
	err := filepath.WalkDir(rootDirPath, func(path string, dir fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !dir.IsDir() {
			fileInfo, err := dir.Info()
			if err != nil {
				return err
			}

			if _, ok := known[path]; !ok {
				foundItems[path] = fileInfo
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk file system: %s", err.Error())
	}

	return foundItems, nil
}
