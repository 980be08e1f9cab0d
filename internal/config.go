package internal

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"

	"mediakit/internal/database"
	"mediakit/internal/ingest"
	"mediakit/internal/library"
	"mediakit/internal/media"
	"mediakit/internal/processor"
)

// MediakitConfig is the struct used to contain the
// various user config supplied by file, or
// manually inside the code.
type MediakitConfig struct {
	Database  database.DatabaseConfig `yaml:"database" env-required:"true"`
	Library   library.Config          `yaml:"library" validate:"required"`
	Ingest    ingest.Config           `yaml:"ingestion"`
	Processor processor.Config        `yaml:"processor"`

	// ExifToolPath overrides the binary used for metadata extraction;
	// when empty, 'exiftool' is expected on the PATH.
	ExifToolPath string `yaml:"exiftool_path" env:"EXIFTOOL_PATH"`

	// ProcessOnCreate controls whether newly created image entities
	// have their renditions generated automatically.
	ProcessOnCreate bool `yaml:"process_on_create" env:"PROCESS_ON_CREATE" env-default:"true"`
}

// LoadFromFile loads a configuration file formatted in YAML in to a
// MediakitConfig struct, overlaying any recognised environment
// variables, and validates the result.
func (config *MediakitConfig) LoadFromFile(configPath string) error {
	if err := cleanenv.ReadConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to load configuration from '%s': %w", configPath, err)
	}

	return config.Validate()
}

// Validate checks the cross-field constraints the struct tags cannot
// express: disk storage requires a destination pattern and prefix.
func (config *MediakitConfig) Validate() error {
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	if config.Library.Strategy == media.DiskStorage {
		if config.Library.Pattern == "" {
			return fmt.Errorf("configuration invalid: disk storage requires 'library.destination_pattern'")
		} else if config.Library.Prefix == "" {
			return fmt.Errorf("configuration invalid: disk storage requires 'library.path_prefix'")
		}
	}

	return nil
}
