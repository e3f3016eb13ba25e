package dampbn

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/bodgit/dampbn/metadata"
	_ "github.com/mattn/go-sqlite3"
)

// CatalogDB stores picture metadata along with previously encoded pictures.
type CatalogDB struct {
	db *sql.DB
}

// NewCatalogDB opens, creating if necessary, the catalog in file.
func NewCatalogDB(file string) (*CatalogDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id INTEGER PRIMARY KEY NOT NULL, filename TEXT NOT NULL UNIQUE, name TEXT NOT NULL, category INTEGER NOT NULL)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS asset (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL, options TEXT NOT NULL, filename TEXT NOT NULL, pic BLOB NOT NULL, UNIQUE(sha1, options))"); err != nil {
		return nil, err
	}

	return &CatalogDB{
		db: db,
	}, nil
}

// ImportCSV replaces the metadata in the catalog with the contents of file.
func (db *CatalogDB) ImportCSV(file string) (int, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	table, err := metadata.ParseCSV(f)
	if err != nil {
		return 0, err
	}

	tx, err := db.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err = tx.Exec("DELETE FROM image"); err != nil {
		return 0, err
	}

	if err := table.Each(func(filename string, r metadata.Record) error {
		_, err := tx.Exec("INSERT INTO image (filename, name, category) VALUES (?, ?, ?)", filename, r.Name, r.Category)
		return err
	}); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return table.Length(), nil
}

// Metadata loads every record in the catalog into a table.
func (db *CatalogDB) Metadata() (*metadata.Table, error) {
	rows, err := db.db.Query("SELECT filename, name, category FROM image")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	table := metadata.New()
	for rows.Next() {
		var filename string
		var r metadata.Record
		if err := rows.Scan(&filename, &r.Name, &r.Category); err != nil {
			return nil, err
		}
		table.Set(filename, r)
	}

	return table, rows.Err()
}

// FindAsset returns the previously encoded picture for the source with the
// given SHA-1 and encoding options, or nil if there isn't one.
func (db *CatalogDB) FindAsset(sha, options string) ([]byte, error) {
	var b []byte
	switch err := db.db.QueryRow("SELECT pic FROM asset WHERE sha1 = ? AND options = ?", sha, options).Scan(&b); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return b, nil
	default:
		return nil, err
	}
}

// AddAsset stores an encoded picture.
func (db *CatalogDB) AddAsset(sha, options, filename string, b []byte) error {
	if _, err := db.db.Exec("INSERT OR REPLACE INTO asset (sha1, options, filename, pic) VALUES (?, ?, ?, ?)", sha, options, filename, b); err != nil {
		return err
	}
	return nil
}

// Close closes the catalog.
func (db *CatalogDB) Close() error {
	return db.db.Close()
}
