package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (creating if needed) the sqlite database that backs both the
// principal and the news stores. WAL is enabled so concurrent request
// handlers reading the database do not block behind the occasional write.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return nil, fmt.Errorf("unable to create directory for database %v, cause %w", path, err)
	}
	connstr := fmt.Sprintf("file:%v?_journal=wal&_fk=on&mode=rwc", path)
	conn, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("unable to open %v, cause %w", path, err)
	}
	err = conn.PingContext(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("unable to ping database %v, cause %w", path, err)
	}
	return conn, nil
}
