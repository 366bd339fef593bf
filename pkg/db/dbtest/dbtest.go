// Package dbtest opens throwaway databases for repository tests.
package dbtest

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// EnvPostgresDSN points tests that need PostGIS at a disposable database.
const EnvPostgresDSN = "RENTALS_TEST_DB_DSN"

const sqliteDriver = "sqlite3_rentals"

var registerDriver sync.Once

// registerSQLite installs a driver whose connections know the handful of
// spatial functions the read and insert paths call. Points are stored as
// their WKT, so ST_AsText is the identity.
func registerSQLite() {
	registerDriver.Do(func() {
		sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				funcs := map[string]any{
					"ST_AsText":  func(wkt string) string { return wkt },
					"ST_SetSRID": func(wkt string, _ int64) string { return wkt },
					"ST_MakePoint": func(lon, lat float64) string {
						return "POINT(" + strconv.FormatFloat(lon, 'f', -1, 64) + " " +
							strconv.FormatFloat(lat, 'f', -1, 64) + ")"
					},
				}
				for name, impl := range funcs {
					if err := conn.RegisterFunc(name, impl, true); err != nil {
						return err
					}
				}
				return nil
			},
		})
	})
}

// sqliteSchema mirrors the relational part of the migrations. Spatial
// columns are plain text here; anything touching PostGIS runs against
// Postgres instead.
var sqliteSchema = []string{
	`CREATE TABLE managers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cognito_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		CONSTRAINT managers_cognito_id_key UNIQUE (cognito_id)
	)`,
	`CREATE TABLE tenants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cognito_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		CONSTRAINT tenants_cognito_id_key UNIQUE (cognito_id)
	)`,
	`CREATE TABLE locations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		address TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		country TEXT NOT NULL,
		postal_code TEXT NOT NULL,
		coordinates TEXT
	)`,
	`CREATE TABLE properties (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		price_per_month NUMERIC NOT NULL,
		security_deposit NUMERIC NOT NULL,
		application_fee NUMERIC NOT NULL,
		photo_urls TEXT,
		amenities TEXT,
		highlights TEXT,
		is_pets_allowed BOOLEAN NOT NULL DEFAULT false,
		is_parking_included BOOLEAN NOT NULL DEFAULT false,
		beds INTEGER NOT NULL,
		baths REAL NOT NULL,
		square_feet INTEGER NOT NULL,
		property_type TEXT NOT NULL,
		posted_date DATETIME,
		average_rating REAL DEFAULT 0,
		number_of_reviews INTEGER DEFAULT 0,
		location_id INTEGER NOT NULL UNIQUE REFERENCES locations(id),
		manager_cognito_id TEXT NOT NULL REFERENCES managers(cognito_id)
	)`,
	`CREATE TABLE leases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		rent NUMERIC NOT NULL,
		deposit NUMERIC NOT NULL,
		property_id INTEGER NOT NULL REFERENCES properties(id),
		tenant_cognito_id TEXT NOT NULL REFERENCES tenants(cognito_id)
	)`,
	`CREATE TABLE payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		amount_due NUMERIC NOT NULL,
		amount_paid NUMERIC NOT NULL,
		due_date DATETIME NOT NULL,
		payment_date DATETIME,
		payment_status TEXT NOT NULL,
		lease_id INTEGER NOT NULL REFERENCES leases(id)
	)`,
	`CREATE TABLE applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		application_date DATETIME NOT NULL,
		status TEXT NOT NULL,
		property_id INTEGER NOT NULL REFERENCES properties(id),
		tenant_cognito_id TEXT NOT NULL REFERENCES tenants(cognito_id),
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		message TEXT,
		lease_id INTEGER UNIQUE REFERENCES leases(id)
	)`,
	`CREATE TABLE tenant_favorites (
		tenant_id INTEGER NOT NULL REFERENCES tenants(id),
		property_id INTEGER NOT NULL REFERENCES properties(id),
		PRIMARY KEY (tenant_id, property_id)
	)`,
	`CREATE TABLE tenant_residences (
		tenant_id INTEGER NOT NULL REFERENCES tenants(id),
		property_id INTEGER NOT NULL REFERENCES properties(id),
		PRIMARY KEY (tenant_id, property_id)
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
}

// SQLite opens a private in-memory database with the relational schema.
func SQLite(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	registerSQLite()
	conn, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: sqliteDriver, DSN: dsn}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range sqliteSchema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// Postgres connects to the database named by RENTALS_TEST_DB_DSN, skipping
// the test when it is unset. The schema must already be migrated.
func Postgres(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(EnvPostgresDSN)
	if dsn == "" {
		t.Skipf("%s is not set", EnvPostgresDSN)
	}
	conn, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	return conn
}
