package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/strata-db/strata/dialect"
	"github.com/strata-db/strata/schema"
	"github.com/strata-db/strata/snapshot"
	"github.com/strata-db/strata/strataerr"
)

// Engine drives the migration lifecycle: Create diffs the live schema against
// the last snapshot and writes a new migration, Apply runs pending
// migrations, Rollback undoes the most recent one, Status reports both.
type Engine struct {
	db            *sql.DB
	d             dialect.Dialect
	dir           string
	state         State
	log           *zap.Logger
	transactional bool
	now           func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithTransactional wraps each migration's statements in one transaction.
// Only the migration being applied is atomic; earlier migrations in the same
// run stay applied when a later one fails.
func WithTransactional(on bool) Option {
	return func(e *Engine) { e.transactional = on }
}

// WithClock overrides the version-id clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an engine over db writing migrations to dir.
func NewEngine(db *sql.DB, d dialect.Dialect, dir string, state State, opts ...Option) *Engine {
	e := &Engine{
		db:    db,
		d:     d,
		dir:   dir,
		state: state,
		log:   zap.NewNop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateResult reports what Create did.
type CreateResult struct {
	Version    string
	Slug       string
	Dir        string
	Operations int
	NoChanges  bool
}

// Create diffs the registry's schema against the latest migration's snapshot
// and writes a new migration directory. When the diff is empty nothing is
// written and NoChanges is set. All rendering and validation happens before
// the first file write, so a failed Create leaves no partial directory.
func (e *Engine) Create(reg *schema.Registry, name string) (*CreateResult, error) {
	slug, err := Slugify(name)
	if err != nil {
		return nil, err
	}

	current, err := snapshot.Take(reg, string(e.d.Name()))
	if err != nil {
		return nil, fmt.Errorf("capturing schema: %w", err)
	}
	previous, err := LatestSnapshot(e.dir, string(e.d.Name()))
	if err != nil {
		return nil, err
	}

	ops := snapshot.Diff(previous, current)
	if len(ops) == 0 {
		e.log.Info("no schema changes detected")
		return &CreateResult{Slug: slug, NoChanges: true}, nil
	}

	upSQL, err := e.renderOps(ops)
	if err != nil {
		return nil, err
	}
	downSQL, err := e.renderOps(snapshot.Invert(ops))
	if err != nil {
		return nil, err
	}

	existing, err := List(e.dir)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(existing))
	for _, m := range existing {
		taken[m.Version] = true
	}
	version := NewVersionID(e.now(), taken)

	m := Migration{Version: version, Slug: slug, Dir: filepath.Join(e.dir, version+"_"+slug)}
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating migration directory: %w", err)
	}
	if err := os.WriteFile(m.UpPath(), []byte(upSQL), 0o644); err != nil {
		return nil, fmt.Errorf("writing up script: %w", err)
	}
	if err := os.WriteFile(m.DownPath(), []byte(downSQL), 0o644); err != nil {
		return nil, fmt.Errorf("writing down script: %w", err)
	}
	if err := current.WriteFile(m.SnapshotPath()); err != nil {
		return nil, err
	}

	e.log.Info("created migration",
		zap.String("version", version),
		zap.String("slug", slug),
		zap.Int("operations", len(ops)))
	return &CreateResult{Version: version, Slug: slug, Dir: m.Dir, Operations: len(ops)}, nil
}

// Apply runs every pending migration in ascending version order and returns
// the migrations it applied. The first failure aborts the run; migrations
// applied before it stay applied.
func (e *Engine) Apply(ctx context.Context) ([]Migration, error) {
	if err := e.state.Init(ctx); err != nil {
		return nil, err
	}
	pending, err := e.pending(ctx)
	if err != nil {
		return nil, err
	}

	var applied []Migration
	for _, m := range pending {
		script, err := os.ReadFile(m.UpPath())
		if err != nil {
			return applied, &strataerr.MigrationError{Version: m.Version, Name: m.Slug, Err: err}
		}
		if err := e.execScript(ctx, string(script)); err != nil {
			return applied, &strataerr.MigrationError{Version: m.Version, Name: m.Slug, Err: err}
		}
		record := Record{Version: m.Version, Name: m.Slug, AppliedAt: e.now().UTC()}
		if err := e.state.MarkApplied(ctx, record); err != nil {
			return applied, &strataerr.MigrationError{Version: m.Version, Name: m.Slug, Err: err}
		}
		e.log.Info("applied migration", zap.String("version", m.Version), zap.String("slug", m.Slug))
		applied = append(applied, m)
	}
	return applied, nil
}

// Rollback undoes the single most recently applied migration. A state record
// whose migration directory has been deleted is an error, not a silent skip,
// because its down script is the only way back.
func (e *Engine) Rollback(ctx context.Context) (*Migration, error) {
	if err := e.state.Init(ctx); err != nil {
		return nil, err
	}
	records, err := e.state.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	last := records[len(records)-1]

	onDisk, err := List(e.dir)
	if err != nil {
		return nil, err
	}
	var target *Migration
	for i := range onDisk {
		if onDisk[i].Version == last.Version {
			target = &onDisk[i]
			break
		}
	}
	if target == nil {
		return nil, &strataerr.MigrationError{
			Version: last.Version,
			Name:    last.Name,
			Err:     fmt.Errorf("missing migration file for applied version"),
		}
	}

	script, err := os.ReadFile(target.DownPath())
	if err != nil {
		return nil, &strataerr.MigrationError{Version: target.Version, Name: target.Slug, Err: err}
	}
	if err := e.execScript(ctx, string(script)); err != nil {
		return nil, &strataerr.MigrationError{Version: target.Version, Name: target.Slug, Err: err}
	}
	if err := e.state.Remove(ctx, target.Version); err != nil {
		return nil, &strataerr.MigrationError{Version: target.Version, Name: target.Slug, Err: err}
	}
	e.log.Info("rolled back migration", zap.String("version", target.Version), zap.String("slug", target.Slug))
	return target, nil
}

// StatusEntry is one on-disk migration annotated with its applied state.
type StatusEntry struct {
	Migration
	Applied   bool
	AppliedAt time.Time
}

// Status lists every on-disk migration in version order with whether a
// matching applied record exists. Purely a read; nothing is mutated.
func (e *Engine) Status(ctx context.Context) ([]StatusEntry, error) {
	if err := e.state.Init(ctx); err != nil {
		return nil, err
	}
	records, err := e.state.Applied(ctx)
	if err != nil {
		return nil, err
	}
	byVersion := make(map[string]Record, len(records))
	for _, r := range records {
		byVersion[r.Version] = r
	}

	onDisk, err := List(e.dir)
	if err != nil {
		return nil, err
	}
	entries := make([]StatusEntry, 0, len(onDisk))
	for _, m := range onDisk {
		entry := StatusEntry{Migration: m}
		if r, ok := byVersion[m.Version]; ok {
			entry.Applied = true
			entry.AppliedAt = r.AppliedAt
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// pending returns on-disk migrations without an applied record, in order.
func (e *Engine) pending(ctx context.Context) ([]Migration, error) {
	records, err := e.state.Applied(ctx)
	if err != nil {
		return nil, err
	}
	appliedSet := make(map[string]bool, len(records))
	for _, r := range records {
		appliedSet[r.Version] = true
	}

	onDisk, err := List(e.dir)
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, m := range onDisk {
		if !appliedSet[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// renderOps turns diff operations into a script, one terminated statement
// per operation.
func (e *Engine) renderOps(ops []snapshot.Operation) (string, error) {
	var b strings.Builder
	for _, op := range ops {
		var stmt string
		var err error
		switch op.Type {
		case snapshot.OpCreateTable:
			stmt, err = e.d.CreateTable(op.Table)
		case snapshot.OpDropTable:
			stmt = e.d.DropTable(op.Table)
		case snapshot.OpAddColumn:
			stmt, err = e.d.AddColumn(op.TableName, op.Column)
		case snapshot.OpDropColumn:
			stmt = e.d.DropColumn(op.TableName, op.Column)
		default:
			err = fmt.Errorf("unknown operation type %d", op.Type)
		}
		if err != nil {
			return "", err
		}
		b.WriteString(stmt)
		b.WriteString(";\n")
	}
	return b.String(), nil
}

// execScript splits a script into statements and executes them, in one
// transaction when transactional mode is on.
func (e *Engine) execScript(ctx context.Context, script string) error {
	stmts := splitStatements(script)
	if len(stmts) == 0 {
		return nil
	}

	if !e.transactional {
		for _, stmt := range stmts {
			if _, err := e.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("executing %q: %w", truncate(stmt), err)
			}
		}
		return nil
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing %q: %w", truncate(stmt), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	return nil
}

// splitStatements splits a script on semicolons. Semicolons inside string
// literals will split incorrectly; generated scripts never contain them, but
// hand-written ones must avoid them.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func truncate(s string) string {
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}
