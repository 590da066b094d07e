package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/source"
	"github.com/pocketsafe/pocketsafe/internal/store"
)

// ImportStore is what an incremental import writes to.
type ImportStore interface {
	ImportedFiles(ctx context.Context) (map[string]store.ImportedFile, error)
	MarkImported(ctx context.Context, path string, f store.ImportedFile) error
	ImportExpenses(ctx context.Context, expenses []model.Expense) (int, error)
}

// ImportResult extends LoadResult with tracking metadata.
type ImportResult struct {
	LoadResult
	Unchanged int
	Reparsed  int
	Inserted  int
}

// Import parses only files that changed since they were last imported,
// stores their expenses and records each file's mtime and size. With force
// every file is parsed again. Rows already stored are skipped by ID.
func Import(ctx context.Context, files []source.DiscoveredFile, st ImportStore, force bool, progressFn ProgressFunc) (*ImportResult, error) {
	result := &ImportResult{LoadResult: LoadResult{TotalFiles: len(files)}}
	if len(files) == 0 {
		return result, nil
	}

	seen, err := st.ImportedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading imported files: %w", err)
	}

	var toParse []source.DiscoveredFile
	infos := make(map[string]os.FileInfo, len(files))
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			result.FileErrors++
			result.Errors = append(result.Errors, err)
			continue
		}
		infos[f.Path] = info

		if prev, ok := seen[f.Path]; ok && !force && prev.Unchanged(info.ModTime().UnixNano(), info.Size()) {
			result.Unchanged++
			continue
		}
		toParse = append(toParse, f)
	}
	result.Reparsed = len(toParse)
	if len(toParse) == 0 {
		return result, nil
	}

	results := parseAll(toParse, func(n int) {
		if progressFn != nil {
			progressFn(n+result.Unchanged, result.TotalFiles)
		}
	})

	for i, pr := range results {
		result.add(pr)
		if pr.Err != nil {
			continue
		}

		n, err := st.ImportExpenses(ctx, pr.Expenses)
		if err != nil {
			return nil, fmt.Errorf("importing %s: %w", toParse[i].Path, err)
		}
		result.Inserted += n

		info := infos[toParse[i].Path]
		if err := st.MarkImported(ctx, toParse[i].Path, store.ImportedFile{
			ModNanos: info.ModTime().UnixNano(),
			Size:     info.Size(),
			Rows:     n,
		}); err != nil {
			return nil, fmt.Errorf("recording import of %s: %w", toParse[i].Path, err)
		}
	}

	return result, nil
}
