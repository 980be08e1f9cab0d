package ingest

import "time"

// Config contains configuration options that allow
// customization of how mediakit detects files to auto-ingest.
type Config struct {
	// The IngestService uses a directory watcher, but a
	// 'force' sync can be performed on a regular interval
	// to protect against the watcher failing.
	ForceSyncSeconds int `yaml:"force_sync_seconds" env:"INGEST_FORCE_SYNC_SECONDS" env-default:"3600"`

	// The path to the directory the service should monitor
	// for new files
	IngestPath string `yaml:"path" env:"INGEST_PATH"`

	// An array of regular expressions that can be used to RESTRICT
	// the files processed by this service. If any expression match
	// the name of the file, it is ignored.
	Blacklist []string `yaml:"blacklist"`

	// When a new file is detected, it's likely to be an in-progress
	// download or copy using an external software. As we cannot KNOW
	// when that is complete, we instead wait for the 'modtime' of
	// the item to be at least this long in the past before processing
	RequiredModTimeAgeSeconds int `yaml:"modtime_threshold_seconds" env:"INGEST_MODTIME_THRESHOLD_SECONDS" env-default:"30"`

	// Controls the number of workers that can perform ingestions.
	// Reducing to 1 means one ingestion at a time.
	IngestionParallelism int `yaml:"parallelism" env:"INGEST_PARALLELISM" env-default:"2"`
}

func (config *Config) RequiredModTimeAgeDuration() time.Duration {
	return time.Duration(config.RequiredModTimeAgeSeconds) * time.Second
}
