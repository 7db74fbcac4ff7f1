package store

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store keeps the history of login attempts made by `telpy connect` in a
// SQLite file under the data path. `telpy history` reads and prunes it.
type Store struct {
	DB *gorm.DB
}

// New opens the history database at path, creating it if needed, and brings
// the attempts table up to date. path may be ":memory:". quiet silences
// gorm's own SQL logging.
func New(path string, quiet bool) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLogger(quiet)})
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// One connection: a single CLI process writes, and an in-memory
	// database only lives as long as its connection.
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.AutoMigrate(&Attempt{}); err != nil {
		return nil, fmt.Errorf("migrate history: %w", err)
	}

	return &Store{DB: db}, nil
}

func gormLogger(quiet bool) logger.Interface {
	if quiet {
		return logger.Default.LogMode(logger.Silent)
	}
	return logger.New(log.New(os.Stderr, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             slowQuery,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Close releases the database file.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// slowQuery is how long a history query may take before gorm warns about it.
const slowQuery = 200 * time.Millisecond
