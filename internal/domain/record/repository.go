// Package record defines the stored representation shared by every supply chain
// entity kind and the persistence contract for snapshots.
package record

import (
	"context"
	"fmt"
)

// SnapshotRepository persists whole collections, one per entity kind. Save replaces the
// stored collection; Load returns it in insertion order.
type SnapshotRepository interface {
	Load(ctx context.Context, kind string) ([]*Record, error)
	Save(ctx context.Context, kind string, records []*Record) error
}

// ErrRecordNotFound indicates that no record matched a lookup.
type ErrRecordNotFound struct {
	Kind  string
	Field string
	Value string
}

func (e ErrRecordNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s=%s", e.Kind, e.Field, e.Value)
}

// Is matches any ErrRecordNotFound when the target carries no kind.
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return true
	}
	return e.Kind == t.Kind && e.Field == t.Field && e.Value == t.Value
}

// ErrDuplicateRecord indicates an insert with an id already in the collection.
type ErrDuplicateRecord struct {
	Kind string
	ID   string
}

func (e ErrDuplicateRecord) Error() string {
	return fmt.Sprintf("duplicate %s record: %s", e.Kind, e.ID)
}
