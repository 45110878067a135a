// Package store keeps the product groups of each extraction run in SQLite so
// runs can be listed and compared later.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hyperifyio/gocatalog/internal/extract"
	"github.com/hyperifyio/gocatalog/internal/store/migrations"
)

// timeLayout has fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run describes one stored extraction run.
type Run struct {
	ID        string
	StartedAt time.Time
	Sources   int
	Products  int
}

// Store is a SQLite-backed run history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and applies pending migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// SaveRun stores groups under runID in one transaction. An empty runID gets
// a fresh UUID. The stored ID is returned.
func (s *Store) SaveRun(ctx context.Context, runID string, sources int, groups []extract.ProductGroup) (string, error) {
	id := runID
	if id == "" {
		id = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, sources, products) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC().Format(timeLayout), sources, len(groups)); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	for gi, g := range groups {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_groups (run_id, ord, id, name, description, source) VALUES (?, ?, ?, ?, ?, ?)`,
			id, gi, g.ID, g.Name, g.Description, g.Source); err != nil {
			return "", fmt.Errorf("insert group %s: %w", g.ID, err)
		}
		for si, sp := range g.SubProducts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO subproducts (run_id, group_ord, ord, id, name, price, image) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				id, gi, si, sp.ID, sp.Name, sp.Price, sp.Image); err != nil {
				return "", fmt.Errorf("insert subproduct %s: %w", sp.ID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, started_at, sources, products FROM runs ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &started, &r.Sources, &r.Products); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Groups returns the product groups of a run in their original order.
func (s *Store) Groups(ctx context.Context, runID string) ([]extract.ProductGroup, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup run: %w", err)
	}
	if exists == 0 {
		return nil, ErrRunNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ord, id, name, description, source FROM product_groups WHERE run_id = ? ORDER BY ord`, runID)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	groups := []extract.ProductGroup{}
	index := map[int]int{}
	for rows.Next() {
		var ord int
		var g extract.ProductGroup
		if err := rows.Scan(&ord, &g.ID, &g.Name, &g.Description, &g.Source); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan group: %w", err)
		}
		index[ord] = len(groups)
		groups = append(groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sub, err := s.db.QueryContext(ctx,
		`SELECT group_ord, id, name, price, image FROM subproducts WHERE run_id = ? ORDER BY group_ord, ord`, runID)
	if err != nil {
		return nil, fmt.Errorf("query subproducts: %w", err)
	}
	defer sub.Close()
	for sub.Next() {
		var ord int
		var sp extract.SubProduct
		if err := sub.Scan(&ord, &sp.ID, &sp.Name, &sp.Price, &sp.Image); err != nil {
			return nil, fmt.Errorf("scan subproduct: %w", err)
		}
		i, ok := index[ord]
		if !ok {
			continue
		}
		groups[i].SubProducts = append(groups[i].SubProducts, sp)
	}
	return groups, sub.Err()
}

// migrate applies *.up.sql files whose numeric prefix is above the recorded version.
func (s *Store) migrate(fsys embed.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}
	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var ups []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}
