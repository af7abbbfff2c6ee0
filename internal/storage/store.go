package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"luna_companion/pkg"

	"github.com/bytedance/sonic"
)

var (
	// ErrUnknownCollection is returned for collection names the store does not hold
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrInvalidRecord is returned when a record lacks user_id or timestamp
	ErrInvalidRecord = errors.New("invalid record")
)

// Collections lists the collections every store accepts
var Collections = map[string]bool{
	pkg.CollectionConversations:  true,
	pkg.CollectionVisualMemories: true,
}

// SortOrder orders results by timestamp
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// Query filters a collection by user, then sorts by timestamp and limits.
// Limit <= 0 returns every matching record.
type Query struct {
	UserID string
	Sort   SortOrder
	Limit  int
}

// ContextStore is an append-only, per-collection record log.
// Records passed to one Insert call are written together.
type ContextStore interface {
	Insert(ctx context.Context, collection string, records ...any) error
	Find(ctx context.Context, collection string, q Query, dest any) error
	Close() error
}

// document is a stored record with the fields the store indexes on
type document struct {
	Raw       json.RawMessage
	UserID    string
	Timestamp time.Time
}

type documentHeader struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func checkCollection(collection string) error {
	if !Collections[collection] {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	return nil
}

// encodeRecords serializes records and extracts their index fields
func encodeRecords(records []any) ([]document, error) {
	docs := make([]document, 0, len(records))
	for i, record := range records {
		raw, err := sonic.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record %d: %w", i, err)
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func decodeDocument(raw []byte) (document, error) {
	var header documentHeader
	if err := sonic.Unmarshal(raw, &header); err != nil {
		return document{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if header.UserID == "" {
		return document{}, fmt.Errorf("%w: missing user_id", ErrInvalidRecord)
	}
	if header.Timestamp.IsZero() {
		return document{}, fmt.Errorf("%w: missing timestamp", ErrInvalidRecord)
	}
	return document{Raw: raw, UserID: header.UserID, Timestamp: header.Timestamp}, nil
}

// applyQuery filters by user, sorts by timestamp and truncates.
// Records sharing a timestamp keep insertion order ascending and reverse it descending.
func applyQuery(docs []document, q Query) []document {
	matched := make([]document, 0, len(docs))
	for _, doc := range docs {
		if q.UserID == "" || doc.UserID == q.UserID {
			matched = append(matched, doc)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})
	if q.Sort == Descending {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched
}

// materialize decodes documents into dest, which must point to a slice
func materialize(docs []document, dest any) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, doc := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(doc.Raw)
	}
	buf.WriteByte(']')

	if err := sonic.Unmarshal(buf.Bytes(), dest); err != nil {
		return fmt.Errorf("failed to decode records: %w", err)
	}
	return nil
}
