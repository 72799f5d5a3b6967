package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/RK62021/Project-Verse/config"
)

// Open connects to the database selected by DB_TYPE and verifies the
// connection. Read replicas listed in DB_REPLICA_URLS serve plain reads;
// transactions always run on the primary.
func Open(c map[string]string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Duration(config.GetInt(c, "DB_SLOW_QUERY_MS", 2000)) * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	dbType := strings.ToLower(config.GetString(c, "DB_TYPE", "postgres"))
	var dialector gorm.Dialector
	switch dbType {
	case "postgres", "supa":
		dialector = postgres.New(postgres.Config{
			DSN:                  PostgresDSN(c),
			PreferSimpleProtocol: true,
		})
	case "sqlite":
		dialector = sqlite.Open(config.GetString(c, "SQLITE_PATH", "projectverse.db"))
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", dbType, err)
	}

	if dbType == "sqlite" {
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}

	if replicas := config.GetList(c, "DB_REPLICA_URLS"); len(replicas) > 0 && dbType != "sqlite" {
		dialectors := make([]gorm.Dialector, 0, len(replicas))
		for _, dsn := range replicas {
			dialectors = append(dialectors, postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}))
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: dialectors,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, fmt.Errorf("register read replicas: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if dbType == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(config.GetInt(c, "DB_MAX_OPEN_CONNS", 20))
		sqlDB.SetMaxIdleConns(config.GetInt(c, "DB_MAX_IDLE_CONNS", 5))
		sqlDB.SetConnMaxLifetime(time.Duration(config.GetInt(c, "DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute)
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("test database connection: %w", err)
	}

	return db, nil
}

// PostgresDSN builds the connection string. DATABASE_URL wins; otherwise the
// DB_* keys are used, or SUPABASE_DB_* with sslmode=require when DB_TYPE=supa.
func PostgresDSN(c map[string]string) string {
	if dsn := config.GetString(c, "DATABASE_URL", ""); dsn != "" {
		return dsn
	}

	prefix, sslmode := "DB_", config.GetString(c, "DB_SSLMODE", "disable")
	if strings.EqualFold(config.GetString(c, "DB_TYPE", ""), "supa") {
		prefix, sslmode = "SUPABASE_DB_", "require"
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		config.GetString(c, prefix+"HOST", "localhost"),
		config.GetString(c, prefix+"USER", "postgres"),
		config.GetString(c, prefix+"PASSWORD", ""),
		config.GetString(c, prefix+"NAME", "projectverse"),
		config.GetString(c, prefix+"PORT", "5432"),
		sslmode,
	)
}
