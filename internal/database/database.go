package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mrlokans/bookinfo/internal/config"
	"github.com/mrlokans/bookinfo/internal/entities"
	"github.com/mrlokans/bookinfo/internal/logger"
)

// Dialect names the SQL backend behind a Database.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type Database struct {
	DB      *gorm.DB
	Dialect Dialect
}

// DialectFor reports which backend a DSN selects.
func DialectFor(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// NewDatabase opens the database at dsn, migrates the schema and seeds the
// local user. dsn is a SQLite file path, ":memory:", or a PostgreSQL URL.
func NewDatabase(dsn string) (*Database, error) {
	return open(dsn, gormlogger.New(logger.Printf{Prefix: "gorm: "}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	}))
}

func open(dsn string, gormLog gormlogger.Interface) (*Database, error) {
	dialect := DialectFor(dsn)

	var dialector gorm.Dialector
	switch dialect {
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dsn == ":memory:" {
		// Every new connection to :memory: is a fresh empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.SavedBook{},
		&entities.SavedBookAuthor{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db, Dialect: dialect}

	if err := database.seedLocalUser(); err != nil {
		return nil, fmt.Errorf("failed to seed local user: %w", err)
	}

	logger.L.Sugar().Infof("Database initialized successfully (%s)", dialect)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// seedLocalUser creates the user every request runs as in single-user mode.
func (d *Database) seedLocalUser() error {
	var existing entities.User
	result := d.DB.Where("id = ?", config.LocalUserID).First(&existing)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		user := entities.User{
			ID:       config.LocalUserID,
			Name:     config.LocalUserName,
			Provider: "local",
		}
		if err := d.DB.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create local user: %w", err)
		}
		logger.L.Info("Created local user")
		return nil
	}
	return result.Error
}
