package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/strata-db/strata/snapshot"
)

const (
	upFile       = "up.sql"
	downFile     = "down.sql"
	snapshotFile = "snapshot.json"
)

// Migration is one on-disk migration directory.
type Migration struct {
	Version string
	Slug    string
	Dir     string
}

// Name returns the directory base name, <version>_<slug>.
func (m Migration) Name() string { return m.Version + "_" + m.Slug }

// UpPath returns the path of the migration's up script.
func (m Migration) UpPath() string { return filepath.Join(m.Dir, upFile) }

// DownPath returns the path of the migration's down script.
func (m Migration) DownPath() string { return filepath.Join(m.Dir, downFile) }

// SnapshotPath returns the path of the migration's schema snapshot.
func (m Migration) SnapshotPath() string { return filepath.Join(m.Dir, snapshotFile) }

// List reads every migration directory under dir, sorted ascending by
// version. A missing dir is an empty project, not an error. Entries that do
// not parse as <version>_<slug> are ignored so editors' scratch files cannot
// break an apply run.
func List(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []Migration
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		version, slug, ok := parseDirName(e.Name())
		if !ok {
			continue
		}
		migrations = append(migrations, Migration{
			Version: version,
			Slug:    slug,
			Dir:     filepath.Join(dir, e.Name()),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// LatestSnapshot loads the snapshot of the highest-version migration, the
// baseline the next diff runs against. With no migrations on disk the
// baseline is empty.
func LatestSnapshot(dir, dialect string) (*snapshot.Snapshot, error) {
	migrations, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(migrations) == 0 {
		return snapshot.Empty(dialect), nil
	}
	last := migrations[len(migrations)-1]
	snap, err := snapshot.ReadFile(last.SnapshotPath())
	if err != nil {
		return nil, fmt.Errorf("migration %s: %w", last.Name(), err)
	}
	return snap, nil
}

// parseDirName splits <version>_<slug>. The version is the leading timestamp
// plus an optional "-N" collision suffix and never contains an underscore,
// so the first underscore always separates version from slug.
func parseDirName(name string) (version, slug string, ok bool) {
	i := strings.IndexByte(name, '_')
	if i <= 0 || i == len(name)-1 {
		return "", "", false
	}
	version, slug = name[:i], name[i+1:]

	ts := version
	if j := strings.IndexByte(version, '-'); j >= 0 {
		var suffix string
		ts, suffix = version[:j], version[j+1:]
		if !allDigits(suffix) {
			return "", "", false
		}
	}
	if !allDigits(ts) || len(ts) < 14 {
		return "", "", false
	}
	return version, slug, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
