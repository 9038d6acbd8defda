package memory

import (
	"elnimport/pkg/domain"
)

// rows holds the records of one entity variant keyed by ID, remembering
// insertion order so listings are deterministic.
type rows[T any] struct {
	byID  map[string]T
	order []string
}

func newRows[T any]() *rows[T] {
	return &rows[T]{byID: make(map[string]T)}
}

func (r *rows[T]) copy(clone func(T) T) *rows[T] {
	out := &rows[T]{byID: make(map[string]T, len(r.byID)), order: append([]string(nil), r.order...)}
	for id, v := range r.byID {
		out.byID[id] = clone(v)
	}
	return out
}

func (r *rows[T]) put(id string, v T) {
	if _, exists := r.byID[id]; !exists {
		r.order = append(r.order, id)
	}
	r.byID[id] = v
}

func (r *rows[T]) remove(id string) {
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

func (r *rows[T]) list() []T {
	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// schema describes how one entity variant is copied and checked at write time.
type schema[T any] struct {
	kind        domain.EntityType
	base        func(*T) *domain.Base
	clone       func(T) T
	validate    func(tx *transaction, v *T) error
	afterCreate func(tx *transaction, v T) error
}

type entityPtr[T any] interface {
	*T
	domain.Entity
}

func newSchema[T any, P entityPtr[T]](kind domain.EntityType, clone func(T) T) *schema[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &schema[T]{
		kind:  kind,
		clone: clone,
		base:  func(v *T) *domain.Base { return P(v).EntityBase() },
	}
}

// txTable binds a schema to the rows of one transaction.
type txTable[T any] struct {
	tx *transaction
	rs *rows[T]
	sc *schema[T]
}

var _ domain.Table[domain.Sample] = txTable[domain.Sample]{}

// Create stores a new record, assigning an ID and timestamps when absent.
func (t txTable[T]) Create(v T) (T, error) {
	var zero T
	b := t.sc.base(&v)
	if b.ID == "" {
		b.ID = t.tx.store.newID()
	}
	if _, exists := t.rs.byID[b.ID]; exists {
		return zero, domain.AlreadyExistsError{Entity: t.sc.kind, ID: b.ID}
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = t.tx.now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = t.tx.now
	}
	if t.sc.validate != nil {
		if err := t.sc.validate(t.tx, &v); err != nil {
			return zero, err
		}
	}
	t.rs.put(b.ID, t.sc.clone(v))
	if t.sc.afterCreate != nil {
		if err := t.sc.afterCreate(t.tx, t.sc.clone(v)); err != nil {
			return zero, err
		}
	}
	return t.sc.clone(v), nil
}

// Update mutates an existing record; the ID cannot be changed by the mutator.
func (t txTable[T]) Update(id string, mutator func(*T) error) (T, error) {
	var zero T
	current, ok := t.rs.byID[id]
	if !ok {
		return zero, domain.NotFoundError{Entity: t.sc.kind, ID: id}
	}
	current = t.sc.clone(current)
	if err := mutator(&current); err != nil {
		return zero, err
	}
	b := t.sc.base(&current)
	b.ID = id
	b.UpdatedAt = t.tx.now
	if t.sc.validate != nil {
		if err := t.sc.validate(t.tx, &current); err != nil {
			return zero, err
		}
	}
	t.rs.put(id, t.sc.clone(current))
	return t.sc.clone(current), nil
}

// Find returns a copy of the record with the given ID.
func (t txTable[T]) Find(id string) (T, bool) {
	v, ok := t.rs.byID[id]
	if !ok {
		var zero T
		return zero, false
	}
	return t.sc.clone(v), true
}

// Delete removes a record.
func (t txTable[T]) Delete(id string) error {
	if _, ok := t.rs.byID[id]; !ok {
		return domain.NotFoundError{Entity: t.sc.kind, ID: id}
	}
	t.rs.remove(id)
	return nil
}

// List returns copies of all records in insertion order.
func (t txTable[T]) List() []T {
	out := t.rs.list()
	for i := range out {
		out[i] = t.sc.clone(out[i])
	}
	return out
}
