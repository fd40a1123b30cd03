package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const migrationsCollection = "migrations"

type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, db *mongo.Database) error
	Down        func(ctx context.Context, db *mongo.Database) error
}

// MigrationLogger receives progress messages.
type MigrationLogger interface {
	Infof(format string, args ...interface{})
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	logger     MigrationLogger
}

func NewMigrator(db *mongo.Database, migrations []Migration, logger MigrationLogger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: migrations,
		logger:     logger,
	}
}

// Up applies every migration newer than the recorded version, in order.
func (m *Migrator) Up(ctx context.Context) error {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= current {
			continue
		}
		m.logger.Infof("Running migration %d: %s", migration.Version, migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := m.setVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

// Down reverts migrations above targetVersion, newest first.
func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > current || migration.Version <= targetVersion {
			continue
		}
		m.logger.Infof("Reverting migration %d: %s", migration.Version, migration.Description)

		if migration.Down != nil {
			if err := migration.Down(ctx, m.db); err != nil {
				return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
			}
		}

		previous := targetVersion
		if i > 0 && m.migrations[i-1].Version > targetVersion {
			previous = m.migrations[i-1].Version
		}
		if err := m.setVersion(ctx, previous); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(migrationsCollection).FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) setVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection(migrationsCollection).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now().UTC()}},
		options.Replace().SetUpsert(true),
	)
	return err
}
