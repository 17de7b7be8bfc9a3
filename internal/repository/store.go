package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"diarydesk/internal/config"
	"diarydesk/internal/db"
	"diarydesk/internal/model"
)

// Store bundles the repositories of one storage backend.
type Store struct {
	Users UserRepository
	Notes NoteRepository

	// Backend names the driver, reported by the health endpoint.
	Backend string

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the backend connections.
func (s *Store) Close(ctx context.Context) error {
	return s.close(ctx)
}

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.Storage) (*Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		mdb, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		store, err := NewMongoStore(ctx, mdb)
		if err != nil {
			_ = mdb.Client().Disconnect(ctx)
			return nil, err
		}
		return store, nil
	case config.DriverMySQL:
		gdb, err := db.NewMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		return openGormStore(gdb, config.DriverMySQL)
	case config.DriverSQLite:
		gdb, err := db.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return openGormStore(gdb, config.DriverSQLite)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
	}
}

// openGormStore is NewGormStore that closes gdb when the store cannot be built.
func openGormStore(gdb *gorm.DB, backend string) (*Store, error) {
	store, err := NewGormStore(gdb, backend)
	if err != nil {
		if sqlDB, dbErr := gdb.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	return store, nil
}

// NewGormStore migrates the schema and returns a store over db.
func NewGormStore(db *gorm.DB, backend string) (*Store, error) {
	if err := db.AutoMigrate(&model.User{}, &model.Note{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	return &Store{
		Users:   NewUserRepository(db),
		Notes:   NewNoteRepository(db),
		Backend: backend,
		ping:    sqlDB.PingContext,
		close:   func(context.Context) error { return sqlDB.Close() },
	}, nil
}

// NewMongoStore ensures indexes and returns a store over db.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	users := newMongoUserRepository(db)
	notes := newMongoNoteRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	if err := notes.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return &Store{
		Users:   users,
		Notes:   notes,
		Backend: "mongo",
		ping: func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		},
		close: db.Client().Disconnect,
	}, nil
}
