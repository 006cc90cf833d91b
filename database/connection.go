package database

import (
	"fmt"
	"time"

	"biblio-app/config"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the catalog database selected by DB_DRIVER.
func Open(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg, cfg.DBName)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, GormConfig(cfg, log))
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database %s", cfg.DBDriver, cfg.DBName)
	}

	log.WithFields(logrus.Fields{
		"driver": cfg.DBDriver,
		"host":   cfg.DBHost,
		"db":     cfg.DBName,
	}).Info("connected to database")
	return db, nil
}

// GormConfig is shared by every connection so unique-key violations are
// translated to gorm.ErrDuplicatedKey.
func GormConfig(cfg *config.Config, log *logrus.Logger) *gorm.Config {
	level := gormlogger.Warn
	if cfg.DBDebug {
		level = gormlogger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

func dialectorFor(cfg *config.Config, dbName string) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, dbName, cfg.DBPort)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, dbName)
		return mysql.Open(dsn), nil
	case "mssql":
		dsn := fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, dbName)
		return sqlserver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}

// EnsureDatabaseExists creates the catalog database on the server when it
// is missing.
func EnsureDatabaseExists(cfg *config.Config, log *logrus.Logger) error {
	var serverDB string
	switch cfg.DBDriver {
	case "postgres":
		serverDB = "postgres"
	case "mysql":
		serverDB = ""
	case "mssql":
		serverDB = "master"
	}

	dialector, err := dialectorFor(cfg, serverDB)
	if err != nil {
		return err
	}
	db, err := gorm.Open(dialector, GormConfig(cfg, log))
	if err != nil {
		return errors.Wrap(err, "connect to database server")
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	exists, err := databaseExists(db, cfg.DBDriver, cfg.DBName)
	if err != nil {
		return errors.Wrap(err, "check database existence")
	}
	if exists {
		return nil
	}

	log.WithField("db", cfg.DBName).Info("creating database")
	return errors.Wrap(db.Exec("CREATE DATABASE "+cfg.DBName).Error, "create database")
}

func databaseExists(db *gorm.DB, driver, dbName string) (bool, error) {
	var count int64
	var err error
	switch driver {
	case "postgres":
		err = db.Raw("SELECT COUNT(*) FROM pg_database WHERE datname = ?", dbName).Scan(&count).Error
	case "mysql":
		err = db.Raw("SELECT COUNT(*) FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?", dbName).Scan(&count).Error
	case "mssql":
		err = db.Raw("SELECT COUNT(*) FROM master.sys.databases WHERE name = ?", dbName).Scan(&count).Error
	default:
		return false, fmt.Errorf("unsupported DB driver: %s", driver)
	}
	return count > 0, err
}
