// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/npmscout/pkg/types"
)

// Catalog is a SQLite store of scraped packages, keyed by name and
// refreshed by upsert on every run.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens or creates the catalog database at path, creating the
// schema if it does not exist.
func OpenCatalog(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) createSchema() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS packages (
		name TEXT PRIMARY KEY,
		version TEXT,
		description TEXT,
		author TEXT,
		license TEXT,
		size INTEGER,
		files INTEGER,
		downloads_weekly INTEGER,
		downloads_monthly INTEGER,
		dependents INTEGER,
		last_publish TEXT,
		homepage TEXT,
		repository TEXT,
		keywords TEXT,
		quality_score REAL,
		popularity_score REAL,
		maintenance_score REAL,
		scraped_at TEXT
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Upsert writes pkgs into the catalog inside one transaction, replacing
// any previous row for the same package name.
func (c *Catalog) Upsert(ctx context.Context, pkgs []types.Package) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO packages (name, version, description, author, license,
			size, files, downloads_weekly, downloads_monthly, dependents,
			last_publish, homepage, repository, keywords,
			quality_score, popularity_score, maintenance_score, scraped_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			version=excluded.version, description=excluded.description,
			author=excluded.author, license=excluded.license,
			size=excluded.size, files=excluded.files,
			downloads_weekly=excluded.downloads_weekly,
			downloads_monthly=excluded.downloads_monthly,
			dependents=excluded.dependents, last_publish=excluded.last_publish,
			homepage=excluded.homepage, repository=excluded.repository,
			keywords=excluded.keywords, quality_score=excluded.quality_score,
			popularity_score=excluded.popularity_score,
			maintenance_score=excluded.maintenance_score,
			scraped_at=excluded.scraped_at`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	scrapedAt := timeNow().UTC().Format(time.RFC3339)
	for _, p := range pkgs {
		keywordsJSON, _ := json.Marshal(p.Keywords)
		_, err := stmt.ExecContext(ctx,
			p.Name, p.Version, p.Description, p.Author, p.License,
			p.Size, p.Files, p.DownloadsWeekly, p.DownloadsMonthly, p.Dependents,
			p.LastPublish, p.Homepage, p.Repository, string(keywordsJSON),
			p.QualityScore, p.PopularityScore, p.MaintenanceScore, scrapedAt,
		)
		if err != nil {
			return fmt.Errorf("upserting %s: %w", p.Name, err)
		}
	}

	return tx.Commit()
}

// Load returns every cataloged package ordered by name.
func (c *Catalog) Load(ctx context.Context) ([]types.Package, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT name, version, description, author, license,
			size, files, downloads_weekly, downloads_monthly, dependents,
			last_publish, homepage, repository, keywords,
			quality_score, popularity_score, maintenance_score
		 FROM packages ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying packages: %w", err)
	}
	defer rows.Close()

	var pkgs []types.Package
	for rows.Next() {
		var p types.Package
		var keywordsJSON string
		if err := rows.Scan(
			&p.Name, &p.Version, &p.Description, &p.Author, &p.License,
			&p.Size, &p.Files, &p.DownloadsWeekly, &p.DownloadsMonthly, &p.Dependents,
			&p.LastPublish, &p.Homepage, &p.Repository, &keywordsJSON,
			&p.QualityScore, &p.PopularityScore, &p.MaintenanceScore,
		); err != nil {
			return nil, fmt.Errorf("scanning package row: %w", err)
		}
		if keywordsJSON != "" && keywordsJSON != "null" {
			json.Unmarshal([]byte(keywordsJSON), &p.Keywords)
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, rows.Err()
}
