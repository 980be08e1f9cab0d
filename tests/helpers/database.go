package helpers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"mediakit/internal/database"
)

const (
	databaseUser     = "postgres"
	databasePassword = "postgres"
	databaseName     = "MEDIAKIT_DB"
)

var (
	ctx = context.Background()

	spawnOnce     sync.Once
	spawnedConfig database.DatabaseConfig
	spawnErr      error
)

// RequireDatabase spawns a postgresql container and returns the config
// needed to connect to it. The container is shared by all tests in the
// process, so tests must tolerate rows created by their neighbours.
// Teardown is left to the testcontainers reaper, which removes the
// container once the test process exits.
func RequireDatabase(t *testing.T) database.DatabaseConfig {
	spawnOnce.Do(func() { spawnedConfig, spawnErr = spawnPostgres() })
	if spawnErr != nil {
		t.Fatalf("failed to spawn postgres container: %s", spawnErr)
	}

	return spawnedConfig
}

func spawnPostgres() (database.DatabaseConfig, error) {
	postgresC, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:14.1-alpine"),
		postgres.WithDatabase(databaseName),
		postgres.WithUsername(databaseUser),
		postgres.WithPassword(databasePassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	if err != nil {
		return database.DatabaseConfig{}, err
	}

	host, err := postgresC.Host(ctx)
	if err != nil {
		return database.DatabaseConfig{}, err
	}

	port, err := postgresC.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return database.DatabaseConfig{}, err
	}

	return database.DatabaseConfig{
		Host:     host,
		User:     databaseUser,
		Password: databasePassword,
		Name:     databaseName,
		Port:     port.Port(),
	}, nil
}
