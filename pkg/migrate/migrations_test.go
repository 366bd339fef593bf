package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/rentals-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.Len(t, matches, 1, "migration %s not found", suffix)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func assertContainsAll(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		assert.True(t, strings.Contains(content, sub), "missing expected statement %q", sub)
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestEnumsMatchDomainValues(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_enums"), []string{
		"CREATE TYPE property_type AS ENUM",
		"'Tinyhouse'",
		"CREATE TYPE application_status AS ENUM",
		"'Approved'",
		"CREATE TYPE payment_status AS ENUM",
		"'PartiallyPaid'",
	})
}

func TestLocationsUseGeographyPoint(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_locations_properties"), []string{
		"coordinates geography(Point, 4326) NOT NULL",
		"USING gist (coordinates)",
		"location_id integer NOT NULL UNIQUE",
		"FOREIGN KEY (manager_cognito_id) REFERENCES managers(cognito_id)",
		"amenities text[] NOT NULL DEFAULT '{}'",
	})
}

func TestIdentityColumnsAreUnique(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_managers_tenants"), []string{
		"CONSTRAINT managers_cognito_id_key UNIQUE (cognito_id)",
		"CONSTRAINT tenants_cognito_id_key UNIQUE (cognito_id)",
	})
}

func TestApplicationLeaseLinkIsOptionalAndUnique(t *testing.T) {
	assertContainsAll(t, readMigration(t, "create_leases_payments_applications"), []string{
		"lease_id integer UNIQUE",
		"FOREIGN KEY (lease_id) REFERENCES leases(id)",
		"CHECK (end_date > start_date)",
		"DROP TABLE IF EXISTS applications",
	})
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, migrate.ValidateDir(dir))
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Tenant Notes!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_tenant_notes.sql"), path)
	require.NoError(t, migrate.ValidateDir(dir))
}

func TestEmbeddedVersionsAreSorted(t *testing.T) {
	versions, err := migrate.EmbeddedVersions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		assert.Less(t, versions[i-1], versions[i])
	}

	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	assert.Len(t, versions, len(onDisk))
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, migrate.ValidateEmbedded())
}

func TestValidateDirRejectsUnbalancedBlocks(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_broken.sql"), []byte(body), 0o644))
	assert.ErrorContains(t, migrate.ValidateDir(dir), "unbalanced")
}
