package testutil

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/nmoram/newsdesk/internal/store"
)

type (
	TestLog interface {
		Fatal(...interface{})
		Log(...interface{})
	}
)

// AcquireDatabase opens a throwaway sqlite database under a temp directory
// and returns it together with a cleanup function.
func AcquireDatabase(ctx context.Context, t TestLog) (*sql.DB, func()) {
	dir, err := os.MkdirTemp("", "newsdesk-tests")
	if err != nil {
		t.Fatal(err)
	}
	db, err := store.Open(ctx, filepath.Join(dir, "newsdesk.db"))
	if err != nil {
		t.Fatal(err)
	}
	return db, func() {
		err := db.Close()
		if err != nil {
			t.Log("unable to close database", err)
		}
		err = os.RemoveAll(dir)
		if err != nil {
			t.Log("unable to cleanup temp dir", dir)
		}
	}
}
