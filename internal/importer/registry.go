package importer

import (
	"fmt"

	"elnimport/pkg/domain"
)

// Registry maps (entity type, archive uuid) to the entity created for it
// during one materialization. Entries are write-once.
type Registry struct {
	tx          domain.Transaction
	collections []string
	entries     map[domain.EntityType]map[string]domain.Ref
	// skippedTypes and skipped hold what this run deliberately did not
	// materialize. References into them resolve to absent.
	skippedTypes map[domain.EntityType]bool
	skipped      map[domain.EntityType]map[string]bool
}

// NewRegistry returns a registry writing memberships through tx. Every
// collection member registered is also joined to actorCollections.
func NewRegistry(tx domain.Transaction, actorCollections []string) *Registry {
	cols := make([]string, len(actorCollections))
	copy(cols, actorCollections)
	return &Registry{
		tx:           tx,
		collections:  cols,
		entries:      map[domain.EntityType]map[string]domain.Ref{},
		skippedTypes: map[domain.EntityType]bool{},
		skipped:      map[domain.EntityType]map[string]bool{},
	}
}

// Register records ref under uuid, keyed by ref.Type. An absent ref is a no-op.
func (r *Registry) Register(uuid string, ref domain.Ref) error {
	if ref.IsZero() {
		return nil
	}
	if _, dup := r.entries[ref.Type][uuid]; dup {
		return fmt.Errorf("%s %q: %w", ref.Type, uuid, ErrDuplicateRegistration)
	}
	if _, err := r.tx.JoinCollections(ref, r.collections); err != nil {
		return fmt.Errorf("join collections for %s: %w", ref, err)
	}
	bucket, ok := r.entries[ref.Type]
	if !ok {
		bucket = map[string]domain.Ref{}
		r.entries[ref.Type] = bucket
	}
	bucket[uuid] = ref
	return nil
}

// Lookup returns the entity registered under (t, uuid).
func (r *Registry) Lookup(t domain.EntityType, uuid string) (domain.Ref, bool) {
	if uuid == "" {
		return domain.Ref{}, false
	}
	ref, ok := r.entries[t][uuid]
	return ref, ok
}

// MustLookup is Lookup for references that are required to exist.
func (r *Registry) MustLookup(t domain.EntityType, uuid string) (domain.Ref, error) {
	ref, ok := r.Lookup(t, uuid)
	if !ok {
		return domain.Ref{}, &UnresolvedReferenceError{Type: t, UUID: uuid}
	}
	return ref, nil
}

// SkipType marks every entity of the given types as intentionally not
// materialized.
func (r *Registry) SkipType(types ...domain.EntityType) {
	for _, t := range types {
		r.skippedTypes[t] = true
	}
}

// Skip marks a single manifest entity as intentionally not materialized.
func (r *Registry) Skip(t domain.EntityType, uuid string) {
	bucket, ok := r.skipped[t]
	if !ok {
		bucket = map[string]bool{}
		r.skipped[t] = bucket
	}
	bucket[uuid] = true
}

// Skipped reports whether (t, uuid) was left out on purpose.
func (r *Registry) Skipped(t domain.EntityType, uuid string) bool {
	return r.skippedTypes[t] || r.skipped[t][uuid]
}

// Resolve is MustLookup that tolerates skipped references: those come back
// absent with a nil error.
func (r *Registry) Resolve(t domain.EntityType, uuid string) (domain.Ref, bool, error) {
	if ref, ok := r.Lookup(t, uuid); ok {
		return ref, true, nil
	}
	if r.Skipped(t, uuid) {
		return domain.Ref{}, false, nil
	}
	return domain.Ref{}, false, &UnresolvedReferenceError{Type: t, UUID: uuid}
}

// Counts returns the number of registered entities per type.
func (r *Registry) Counts() map[domain.EntityType]int {
	out := make(map[domain.EntityType]int, len(r.entries))
	for t, bucket := range r.entries {
		out[t] = len(bucket)
	}
	return out
}

// Len returns the total number of registered entities.
func (r *Registry) Len() int {
	n := 0
	for _, bucket := range r.entries {
		n += len(bucket)
	}
	return n
}
