package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/debtbook/internal/storage"
)

const uniqueMarker = "UNIQUE constraint failed: "

// wrapErr maps driver errors onto the storage error taxonomy.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	if conflict := asConflict(err); conflict != nil {
		return conflict
	}
	return fmt.Errorf("failed to %s: %w: %w", op, storage.ErrStorage, err)
}

func asConflict(err error) *storage.ConflictError {
	var sqlErr *sqlitedrv.Error
	if !errors.As(err, &sqlErr) {
		return nil
	}
	msg := sqlErr.Error()
	code := sqlErr.Code()
	if code != sqlite3.SQLITE_CONSTRAINT_UNIQUE && code != sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY &&
		!strings.Contains(msg, uniqueMarker) {
		return nil
	}

	conflict := &storage.ConflictError{Err: err}
	if i := strings.Index(msg, uniqueMarker); i >= 0 {
		target := msg[i+len(uniqueMarker):]
		if end := strings.IndexAny(target, " ,("); end >= 0 {
			target = target[:end]
		}
		conflict.Table, conflict.Column, _ = strings.Cut(target, ".")
	}
	return conflict
}
