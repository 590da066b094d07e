package store

import (
	"context"
	"time"
)

// ImportedFile is what the store remembers about an expense file it has
// already loaded. A file whose size and mtime still match is skipped.
type ImportedFile struct {
	ModNanos int64
	Size     int64
	Rows     int
}

// Unchanged reports whether the file on disk still matches the record.
func (f ImportedFile) Unchanged(modNanos, size int64) bool {
	return f.ModNanos == modNanos && f.Size == size
}

// ImportedFiles returns every recorded import keyed by path.
func (s *Store) ImportedFiles(ctx context.Context) (map[string]ImportedFile, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, mod_nanos, size, row_count FROM imported_files")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make(map[string]ImportedFile)
	for rows.Next() {
		var (
			path string
			f    ImportedFile
		)
		if err := rows.Scan(&path, &f.ModNanos, &f.Size, &f.Rows); err != nil {
			return nil, err
		}
		files[path] = f
	}
	return files, rows.Err()
}

// MarkImported records path as loaded in its current state.
func (s *Store) MarkImported(ctx context.Context, path string, f ImportedFile) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO imported_files (path, mod_nanos, size, row_count, imported_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET mod_nanos = excluded.mod_nanos, size = excluded.size,
			row_count = excluded.row_count, imported_at = excluded.imported_at`,
		path, f.ModNanos, f.Size, f.Rows, formatTime(time.Now()))
	return err
}

// ForgetImport drops the record for path so the next import reads it again.
func (s *Store) ForgetImport(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM imported_files WHERE path = ?", path)
	return err
}
