package persist

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/shapedtime/tvscraper/internal/library"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Dialect describes the differences between the supported SQL databases.
type Dialect struct {
	Name   string
	Driver string

	// numbered placeholders ($1, $2, ...) instead of ?
	numbered bool
	// statements run once after connecting
	setup []string
}

var (
	DialectSQLite = Dialect{
		Name:   "sqlite",
		Driver: "sqlite",
		setup: []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA journal_mode = WAL",
		},
	}
	DialectPostgres = Dialect{
		Name:     "postgres",
		Driver:   "pgx",
		numbered: true,
	}
)

// rebind rewrites ? placeholders for the dialect.
func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLBackend stores the document as rows of nodes and attributes.
type SQLBackend struct {
	db      *sql.DB
	dialect Dialect
	log     *slog.Logger
}

// OpenSQL connects to the database and runs migrations.
func OpenSQL(dialect Dialect, dsn string, log *slog.Logger) (*SQLBackend, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", dialect.Name, err)
	}

	for _, stmt := range dialect.setup {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	b := &SQLBackend{db: db, dialect: dialect, log: log}

	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return b, nil
}

type migration struct {
	version int
	name    string
}

// migrate runs all pending migrations
func (b *SQLBackend) migrate() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var currentVersion int
	row := b.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	migrations, err := listMigrations()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		b.log.Info("applying migration", "version", m.version, "name", m.name)

		content, err := migrationsFS.ReadFile(path.Join("migrations", m.name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", m.name, err)
		}

		if err := b.applyMigration(m.version, string(content)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.name, err)
		}
	}

	return nil
}

// listMigrations returns the embedded migrations sorted by version. File
// names start with the version: 001_document_schema.sql is version 1.
func listMigrations() ([]migration, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		parts := strings.SplitN(entry.Name(), "_", 2)
		if len(parts) < 2 {
			continue
		}
		version, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		out = append(out, migration{version: version, name: entry.Name()})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].version < out[j].version
	})
	return out, nil
}

// applyMigration runs a migration within a transaction
func (b *SQLBackend) applyMigration(version int, content string) error {
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(content); err != nil {
		return err
	}

	if _, err := tx.Exec(b.dialect.rebind("INSERT INTO schema_migrations (version) VALUES (?)"), version); err != nil {
		return err
	}

	return tx.Commit()
}

type nodeRow struct {
	id       string
	kind     string
	parentID sql.NullString
	position int
}

// Load reads every node and attribute and rebuilds the tree.
func (b *SQLBackend) Load(ctx context.Context) (*library.Document, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT id, kind, parent_id, position FROM nodes ORDER BY position, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodeRows []nodeRow
	nodes := make(map[string]*library.DocNode)
	for rows.Next() {
		var r nodeRow
		if err := rows.Scan(&r.id, &r.kind, &r.parentID, &r.position); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodeRows = append(nodeRows, r)
		nodes[r.id] = &library.DocNode{Kind: library.Kind(r.kind), ID: r.id, Attrs: map[string]string{}}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attrRows, err := b.db.QueryContext(ctx, "SELECT node_id, name, value FROM node_attributes")
	if err != nil {
		return nil, fmt.Errorf("failed to query attributes: %w", err)
	}
	defer attrRows.Close()

	for attrRows.Next() {
		var nodeID, name, value string
		if err := attrRows.Scan(&nodeID, &name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		n, ok := nodes[nodeID]
		if !ok {
			return nil, fmt.Errorf("%w: attribute %s of unknown node %s", library.ErrInvalidDocument, name, nodeID)
		}
		n.Attrs[name] = value
	}
	if err := attrRows.Err(); err != nil {
		return nil, err
	}

	// Rows are ordered by position, so appending keeps sibling order.
	doc := emptyDocument()
	for _, r := range nodeRows {
		n := nodes[r.id]
		if !r.parentID.Valid {
			doc.Nodes = append(doc.Nodes, n)
			continue
		}
		parent, ok := nodes[r.parentID.String]
		if !ok {
			return nil, fmt.Errorf("%w: node %s has unknown parent %s", library.ErrInvalidDocument, r.id, r.parentID.String)
		}
		parent.Children = append(parent.Children, n)
	}

	b.log.Debug("document loaded", "nodes", len(nodeRows))
	return doc, nil
}

// Save replaces the stored document in one transaction.
func (b *SQLBackend) Save(ctx context.Context, doc *library.Document) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"node_attributes", "nodes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	insertNode, err := tx.PrepareContext(ctx, b.dialect.rebind("INSERT INTO nodes (id, kind, parent_id, position) VALUES (?, ?, ?, ?)"))
	if err != nil {
		return err
	}
	defer insertNode.Close()

	insertAttr, err := tx.PrepareContext(ctx, b.dialect.rebind("INSERT INTO node_attributes (node_id, name, value) VALUES (?, ?, ?)"))
	if err != nil {
		return err
	}
	defer insertAttr.Close()

	var count int
	var insert func(parent sql.NullString, nodes []*library.DocNode) error
	insert = func(parent sql.NullString, nodes []*library.DocNode) error {
		for pos, n := range nodes {
			if _, err := insertNode.ExecContext(ctx, n.ID, string(n.Kind), parent, pos); err != nil {
				return fmt.Errorf("failed to insert node %s: %w", n.ID, err)
			}
			for name, value := range n.Attrs {
				if name == "id" {
					continue
				}
				if _, err := insertAttr.ExecContext(ctx, n.ID, name, value); err != nil {
					return fmt.Errorf("failed to insert attribute %s of %s: %w", name, n.ID, err)
				}
			}
			count++
			if err := insert(sql.NullString{String: n.ID, Valid: true}, n.Children); err != nil {
				return err
			}
		}
		return nil
	}

	if doc != nil {
		if err := insert(sql.NullString{}, doc.Nodes); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	b.log.Info("document saved", "nodes", count)
	return nil
}

// Close closes the database connection
func (b *SQLBackend) Close() error {
	return b.db.Close()
}
