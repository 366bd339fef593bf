package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var unsafeNameRe = regexp.MustCompile(`[^a-z0-9]+`)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- undo %[1]s
-- +goose StatementEnd
`

// migrationName snake-cases a human title, e.g. "Add Tenant Notes!" becomes
// "add_tenant_notes".
func migrationName(title string) string {
	return strings.Trim(unsafeNameRe.ReplaceAllString(strings.ToLower(title), "_"), "_")
}

// CreateSQLMigration writes an empty goose migration into dir stamped with
// the current UTC time and returns its path.
func CreateSQLMigration(dir, title string) (string, error) {
	return createSQLMigration(dir, title, time.Now().UTC())
}

func createSQLMigration(dir, title string, at time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	name := migrationName(title)
	if name == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", title)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %q: %w", dir, err)
	}

	full := filepath.Join(dir, at.Format(versionLayout)+"_"+name+".sql")
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("migration already exists: %s", full)
	}
	if err != nil {
		return "", fmt.Errorf("create %q: %w", full, err)
	}
	if _, err := fmt.Fprintf(f, migrationTemplate, name); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %q: %w", full, err)
	}
	return full, f.Close()
}
