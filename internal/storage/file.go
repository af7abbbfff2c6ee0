package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"luna_companion/src/logger"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
)

// FileStore keeps every collection in a single JSON file:
//
//	{"conversations": [...], "visual_memories": [...]}
//
// Each operation reads the file; inserts rewrite it through a temp file and rename.
type FileStore struct {
	path string
	mu   sync.RWMutex
	log  zerolog.Logger
}

// NewFileStore creates the file with empty collections if it does not exist
func NewFileStore(path string) (*FileStore, error) {
	store := &FileStore{
		path: path,
		log:  logger.Component("file-store"),
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		empty := make(map[string][]json.RawMessage, len(Collections))
		for name := range Collections {
			empty[name] = []json.RawMessage{}
		}
		if err := store.write(empty); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat store file: %w", err)
	}

	store.log.Info().Str("path", path).Msg("file store ready")
	return store, nil
}

// Insert appends records to a collection in one file write
func (f *FileStore) Insert(ctx context.Context, collection string, records ...any) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	docs, err := encodeRecords(records)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Load existing records; a read failure aborts rather than starting fresh
	data, err := f.read()
	if err != nil {
		return err
	}

	// Add new records
	for _, doc := range docs {
		data[collection] = append(data[collection], doc.Raw)
	}

	// Write back to file
	if err := f.write(data); err != nil {
		return err
	}

	f.log.Debug().Str("collection", collection).Int("records", len(docs)).Msg("records inserted")
	return nil
}

// Find loads matching records into dest
func (f *FileStore) Find(ctx context.Context, collection string, q Query, dest any) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.RLock()
	data, err := f.read()
	f.mu.RUnlock()
	if err != nil {
		return err
	}

	docs := make([]document, 0, len(data[collection]))
	for i, raw := range data[collection] {
		doc, err := decodeDocument(raw)
		if err != nil {
			f.log.Warn().Err(err).Str("collection", collection).Int("index", i).Msg("skipping unreadable record")
			continue
		}
		docs = append(docs, doc)
	}

	return materialize(applyQuery(docs, q), dest)
}

// Close is a no-op; the file is not held open between operations
func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) read() (map[string][]json.RawMessage, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	data := make(map[string][]json.RawMessage)
	if len(raw) == 0 {
		return data, nil
	}
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	return data, nil
}

func (f *FileStore) write(data map[string][]json.RawMessage) error {
	content, err := sonic.ConfigStd.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store data: %w", err)
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write temp store file: %w", err)
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			f.log.Warn().Err(removeErr).Str("path", tempPath).Msg("failed to clean up temp store file")
		}
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
