// internal/database/database.go

// Package database opens the gorm connections used by the SQL annotation stores.
package database

import (
	"database/sql"
	"fmt"

	"github.com/OCAP2/panopath/internal/config"
	"github.com/OCAP2/panopath/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SchemaVersion is written to pano_infos on first setup.
const SchemaVersion = "1"

// Manager handles database connections and schema setup.
type Manager struct {
	DB             *gorm.DB
	SqlDB          *sql.DB
	IsValid        bool
	UsingFallback  bool
	SqliteFilePath string
	Logger         zerolog.Logger
}

// NewManager creates a new database manager. sqlitePath is the fallback
// file used when Postgres is unreachable; empty means in-memory.
func NewManager(log zerolog.Logger, sqlitePath string) *Manager {
	return &Manager{
		SqliteFilePath: sqlitePath,
		Logger:         log,
	}
}

// ConnectPostgres opens Postgres and falls back to SQLite if it fails.
func (m *Manager) ConnectPostgres(cfg config.DBConfig) error {
	db, err := GetPostgresDB(cfg)
	if err == nil {
		err = m.use(db)
	}
	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		m.UsingFallback = true
		return m.ConnectSQLite()
	}
	m.SqlDB.SetMaxOpenConns(10)
	m.Logger.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connected to Postgres")
	return nil
}

// ConnectSQLite opens the SQLite file at SqliteFilePath.
func (m *Manager) ConnectSQLite() error {
	db, err := GetSqliteDB(m.SqliteFilePath)
	if err != nil {
		m.IsValid = false
		return fmt.Errorf("failed to get local SQLite DB: %w", err)
	}
	if err := m.use(db); err != nil {
		m.IsValid = false
		return err
	}
	m.Logger.Info().Str("path", m.SqliteFilePath).Msg("Using local SQLite DB")
	return nil
}

func (m *Manager) use(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to validate connection: %w", err)
	}
	m.DB, m.SqlDB, m.IsValid = db, sqlDB, true
	return nil
}

// Setup migrates tables and writes the info row if missing.
func (m *Manager) Setup() error {
	if !m.IsValid || m.DB == nil {
		return fmt.Errorf("db not valid")
	}
	if err := Migrate(m.DB); err != nil {
		m.IsValid = false
		return err
	}
	m.Logger.Info().Str("dialect", m.DB.Name()).Msg("Database setup complete")
	return nil
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}

// Migrate creates or updates the schema on db.
func Migrate(db *gorm.DB) error {
	if !db.Migrator().HasTable(&model.PanoInfo{}) {
		if err := db.AutoMigrate(&model.PanoInfo{}); err != nil {
			return fmt.Errorf("failed to create pano_infos table: %w", err)
		}
		if err := db.Create(&model.PanoInfo{
			SchemaVersion: SchemaVersion,
			Description:   "panorama path annotations",
		}).Error; err != nil {
			return fmt.Errorf("failed to create pano_infos entry: %w", err)
		}
	}
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// GetPostgresDB returns a connection to the Postgres database.
func GetPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        1000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// GetSqliteDB returns a connection to a SQLite database.
// If path is empty, uses a shared in-memory database.
func GetSqliteDB(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}
