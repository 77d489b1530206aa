package resource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus.org/internal/ids"
)

// Filter is a whitelisted set of field=value constraints for List.
type Filter map[string]string

// Store persists entities of one type. Update must write only the named
// fields so a concurrent edit of unrelated fields is never clobbered.
type Store[T Entity] interface {
	Insert(ctx context.Context, e T) error
	FindByPublicID(ctx context.Context, publicID string) (T, error)
	List(ctx context.Context, filter Filter) ([]T, error)
	Update(ctx context.Context, e T, changed []string) error
	Delete(ctx context.Context, e T) error
}

// DeleteHook runs before an entity is removed, in registration order. Cascade
// policies hang off these hooks.
type DeleteHook func(ctx context.Context, publicID string) error

// Engine is the generic create/get/edit/delete/list machinery every entity
// type plugs into.
type Engine[T Entity] struct {
	schema   *Schema[T]
	store    Store[T]
	now      func() time.Time
	onDelete []DeleteHook
}

// EngineOption configures an Engine.
type EngineOption[T Entity] func(*Engine[T])

// WithClock overrides the time source (useful for tests).
func WithClock[T Entity](fn func() time.Time) EngineOption[T] {
	return func(e *Engine[T]) {
		if fn != nil {
			e.now = fn
		}
	}
}

// WithDeleteHook appends a cascade hook.
func WithDeleteHook[T Entity](hook DeleteHook) EngineOption[T] {
	return func(e *Engine[T]) {
		e.onDelete = append(e.onDelete, hook)
	}
}

// NewEngine wires a schema to a store.
func NewEngine[T Entity](schema *Schema[T], store Store[T], opts ...EngineOption[T]) *Engine[T] {
	eng := &Engine[T]{
		schema: schema,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// Schema exposes the engine's field registry.
func (e *Engine[T]) Schema() *Schema[T] { return e.schema }

// Collection returns the plural path segment for routing.
func (e *Engine[T]) Collection() string { return e.schema.Collection }

// Create validates the input, assigns identity and persists the entity. The
// returned record is the full external representation including the new
// public identifier.
func (e *Engine[T]) Create(ctx context.Context, in Record) (Record, error) {
	entity, err := e.schema.Decode(ctx, in)
	if err != nil {
		return nil, err
	}
	now := e.now().UTC()
	meta := entity.ResourceMeta()
	meta.Key = ids.NewKey()
	meta.PublicID = ids.NewPublic()
	meta.CreatedAt = now
	meta.UpdatedAt = now
	if err := e.store.Insert(ctx, entity); err != nil {
		if fe, ok := AsFieldErrors(err); ok {
			return nil, fe
		}
		return nil, fmt.Errorf("insert %s: %w", e.schema.Name, err)
	}
	return e.schema.Encode(entity, nil), nil
}

// Get returns the external representation, minus the excluded fields.
func (e *Engine[T]) Get(ctx context.Context, publicID string, exclude map[string]struct{}) (Record, error) {
	entity, err := e.find(ctx, publicID)
	if err != nil {
		return nil, err
	}
	return e.schema.Encode(entity, exclude), nil
}

// List returns representations matching the filter, minus the excluded
// fields. Filter keys outside the schema's declared whitelist are rejected.
func (e *Engine[T]) List(ctx context.Context, filter Filter, exclude map[string]struct{}) ([]Record, error) {
	errs := FieldErrors{}
	for key := range filter {
		if !e.schema.Filterable(key) {
			errs[key] = "Cannot filter on this field."
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	items, err := e.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", e.schema.Collection, err)
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		out = append(out, e.schema.Encode(item, exclude))
	}
	return out, nil
}

// Edit applies a partial input. Only fields present in the input are
// validated and written; the changed-field list (updated_at included when
// anything moved) is returned for observability. An edit that changes
// nothing reports ErrNoChange.
func (e *Engine[T]) Edit(ctx context.Context, publicID string, in Record) ([]string, error) {
	entity, err := e.find(ctx, publicID)
	if err != nil {
		return nil, err
	}
	changed, err := e.schema.Patch(ctx, entity, in)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return nil, ErrNoChange
	}
	entity.ResourceMeta().UpdatedAt = e.now().UTC()
	changed = append(changed, "updated_at")
	if err := e.store.Update(ctx, entity, changed); err != nil {
		if fe, ok := AsFieldErrors(err); ok {
			return nil, fe
		}
		return nil, fmt.Errorf("update %s: %w", e.schema.Name, err)
	}
	return changed, nil
}

// Delete removes the entity after running cascade hooks.
func (e *Engine[T]) Delete(ctx context.Context, publicID string) error {
	entity, err := e.find(ctx, publicID)
	if err != nil {
		return err
	}
	for _, hook := range e.onDelete {
		if err := hook(ctx, publicID); err != nil {
			return fmt.Errorf("cascade %s: %w", e.schema.Name, err)
		}
	}
	if err := e.store.Delete(ctx, entity); err != nil {
		return fmt.Errorf("delete %s: %w", e.schema.Name, err)
	}
	return nil
}

func (e *Engine[T]) find(ctx context.Context, publicID string) (T, error) {
	var zero T
	if !ids.IsPublic(publicID) {
		return zero, ErrInvalidID
	}
	entity, err := e.store.FindByPublicID(ctx, publicID)
	if err != nil {
		return zero, err
	}
	return entity, nil
}

// StoreResolver adapts a store into a relation Resolver: it reports which of
// the given public identifiers do not exist, never failing partially.
func StoreResolver[T Entity](store Store[T]) Resolver {
	return func(ctx context.Context, publicIDs []string) ([]string, error) {
		var missing []string
		for _, id := range publicIDs {
			if _, err := store.FindByPublicID(ctx, id); err != nil {
				if errors.Is(err, ErrNotFound) {
					missing = append(missing, id)
					continue
				}
				return nil, err
			}
		}
		return missing, nil
	}
}

// Resource is the type-erased view httpapi mounts. Every Engine satisfies it.
type Resource interface {
	Collection() string
	Create(ctx context.Context, in Record) (Record, error)
	Get(ctx context.Context, publicID string, exclude map[string]struct{}) (Record, error)
	List(ctx context.Context, filter Filter, exclude map[string]struct{}) ([]Record, error)
	Edit(ctx context.Context, publicID string, in Record) ([]string, error)
	Delete(ctx context.Context, publicID string) error
}
