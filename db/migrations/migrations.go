package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"log"

	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var embedMigrations embed.FS

// Run executa as migrações embutidas e as correções aditivas de schema.
// Failures are logged but never abort startup: a painel running on an old
// schema beats no painel at all.
func Run(db *sql.DB) {
	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Printf("migrations: failed to set dialect: %v", err)
		return
	}
	goose.SetBaseFS(embedMigrations)

	if err := goose.Up(db, "sql"); err != nil {
		log.Printf("migrations: goose up failed: %v", err)
	}

	if err := EnsureBidColumns(db); err != nil {
		log.Printf("migrations: column check failed: %v", err)
	}
}

// bidColumnDDL maps every bids column that older deployments may lack to the
// ALTER TABLE clause that adds it. Databases created before the column existed
// get it added in place, existing rows defaulting to empty. New columns only
// need a new entry here.
var bidColumnDDL = map[string]string{
	"plataforma": "ALTER TABLE bids ADD COLUMN plataforma TEXT DEFAULT ''",
}

// EnsureBidColumns adds any bids column missing from an already-deployed
// database file, without touching existing data.
func EnsureBidColumns(db *sql.DB) error {
	rows, err := db.Query(`PRAGMA table_info(bids)`)
	if err != nil {
		return fmt.Errorf("read table info: %w", err)
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan table info: %w", err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for column, ddl := range bidColumnDDL {
		if present[column] {
			continue
		}
		log.Printf("migrations: adding missing bids column %q", column)
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("add column %s: %w", column, err)
		}
	}
	return nil
}
