package resource

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// Record is the external representation of an entity: what the API emits and
// what create/edit inputs decode into.
type Record map[string]any

// Schema is the field registry for one entity type. It owns serialization in
// both directions: Encode projects an entity to its external representation,
// Decode builds a fresh entity from input, Patch merges a partial input into
// an existing one without re-demanding required fields.
type Schema[T Entity] struct {
	// Name is the singular entity name used in messages, e.g. "course".
	Name string
	// Collection is the plural path segment, e.g. "courses".
	Collection string
	New        func() T
	// Copy returns an independent copy so stores can hand out entities
	// without sharing mutable state with callers.
	Copy   func(T) T
	Fields []Field[T]
	// Filters whitelists the field names List may filter on.
	Filters []string
	// UniqueSets declares multi-field uniqueness constraints, e.g. one
	// attendance session per (schedule, student).
	UniqueSets [][]string
	// Check runs entity-level validation after all field writes, for rules
	// spanning more than one field.
	Check func(T) FieldErrors
}

func (s *Schema[T]) field(name string) *Field[T] {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// UniqueFields returns the names of fields declared unique.
func (s *Schema[T]) UniqueFields() []string {
	var out []string
	for i := range s.Fields {
		if s.Fields[i].Unique {
			out = append(out, s.Fields[i].Name)
		}
	}
	return out
}

// Filterable reports whether name may be used as a list filter.
func (s *Schema[T]) Filterable(name string) bool {
	for _, f := range s.Filters {
		if f == name {
			return true
		}
	}
	return false
}

// Encode emits every field not excluded. Write-only fields never appear.
// Relation fields come out as public identifiers, never nested objects.
func (s *Schema[T]) Encode(e T, exclude map[string]struct{}) Record {
	meta := e.ResourceMeta()
	rec := make(Record, len(s.Fields)+3)
	put := func(name string, v any) {
		if _, skip := exclude[name]; !skip {
			rec[name] = v
		}
	}
	put("uuid", meta.PublicID)
	put("created_at", meta.CreatedAt)
	put("updated_at", meta.UpdatedAt)
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.WriteOnly {
			continue
		}
		put(f.Name, f.Get(e))
	}
	return rec
}

// staged is a fully validated pending write to one field.
type staged[T Entity] struct {
	field *Field[T]
	value any
}

// stage coerces, validates and resolves one input value without touching the
// entity. Nothing is applied until every field has passed, so a failing
// relation or type error never leaves a half-written entity behind.
func stage[T Entity](ctx context.Context, f *Field[T], raw any, errs FieldErrors) (staged[T], bool, error) {
	value, err := coerce(f.Kind, raw)
	if err != nil {
		errs[f.Name] = err.Error()
		return staged[T]{}, false, nil
	}
	if value == nil && f.Required {
		errs[f.Name] = msgRequired
		return staged[T]{}, false, nil
	}
	if f.Validate != nil && value != nil {
		if err := f.Validate(value); err != nil {
			errs[f.Name] = err.Error()
			return staged[T]{}, false, nil
		}
	}
	if err := resolveRefs(ctx, f, value); err != nil {
		if isLookupFailure(err) {
			errs[f.Name] = err.Error()
			return staged[T]{}, false, nil
		}
		return staged[T]{}, false, fmt.Errorf("resolve %s: %w", f.Name, err)
	}
	return staged[T]{field: f, value: value}, true, nil
}

// Decode validates a create-mode input and constructs the entity. Every
// required field must be present; each present field is validated
// individually before the entity is considered constructible.
func (s *Schema[T]) Decode(ctx context.Context, in Record) (T, error) {
	var zero T
	errs := FieldErrors{}
	var pending []staged[T]

	for key := range in {
		if f := s.field(key); f == nil {
			errs[key] = msgUnknownField
		}
	}
	for i := range s.Fields {
		f := &s.Fields[i]
		raw, present := in[f.Name]
		if !present {
			if f.Required {
				errs[f.Name] = msgRequired
			}
			continue
		}
		st, ok, err := stage(ctx, f, raw, errs)
		if err != nil {
			return zero, err
		}
		if ok {
			pending = append(pending, st)
		}
	}
	if len(errs) > 0 {
		return zero, errs
	}

	e := s.New()
	for _, st := range pending {
		if err := st.field.Set(e, st.value); err != nil {
			errs[st.field.Name] = err.Error()
		}
	}
	if len(errs) > 0 {
		return zero, errs
	}
	if s.Check != nil {
		if ferr := s.Check(e); len(ferr) > 0 {
			return zero, ferr
		}
	}
	return e, nil
}

// Patch merges only the fields present in the input into e. Absent fields are
// left untouched and are not re-validated against Required. A field counts as
// changed only when its new value differs from the current one; the returned
// list preserves schema declaration order. Meta keys are tolerated when they
// echo the entity's current values, so an Encode output can be fed straight
// back through the edit path; rewriting them is still rejected.
func (s *Schema[T]) Patch(ctx context.Context, e T, in Record) ([]string, error) {
	errs := FieldErrors{}
	pending := make(map[string]staged[T], len(in))

	for key, raw := range in {
		switch key {
		case "uuid", "created_at", "updated_at":
			if !metaMatches(e.ResourceMeta(), key, raw) {
				errs[key] = msgReadOnly
			}
			continue
		}
		f := s.field(key)
		if f == nil {
			errs[key] = msgUnknownField
			continue
		}
		st, ok, err := stage(ctx, f, raw, errs)
		if err != nil {
			return nil, err
		}
		if ok {
			pending[key] = st
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	var changed []string
	for i := range s.Fields {
		f := &s.Fields[i]
		st, present := pending[f.Name]
		if !present {
			continue
		}
		before := f.Get(e)
		if err := f.Set(e, st.value); err != nil {
			errs[f.Name] = err.Error()
			continue
		}
		if !reflect.DeepEqual(before, f.Get(e)) {
			changed = append(changed, f.Name)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if s.Check != nil {
		if ferr := s.Check(e); len(ferr) > 0 {
			return nil, ferr
		}
	}
	return changed, nil
}

// metaMatches reports whether a meta key in an edit input carries the value
// the entity already has. Timestamps arrive as time.Time in-process and as
// RFC3339 strings over the wire.
func metaMatches(m *Meta, key string, raw any) bool {
	switch key {
	case "uuid":
		s, ok := raw.(string)
		return ok && s == m.PublicID
	case "created_at", "updated_at":
		want := m.CreatedAt
		if key == "updated_at" {
			want = m.UpdatedAt
		}
		switch v := raw.(type) {
		case time.Time:
			return v.Equal(want)
		case string:
			ts, err := time.Parse(time.RFC3339, v)
			return err == nil && ts.Equal(want)
		}
	}
	return false
}

// isLookupFailure distinguishes "these ids don't exist" from a storage error.
func isLookupFailure(err error) bool {
	_, ok := err.(*refLookupError)
	return ok
}

type refLookupError struct{ msg string }

func (e *refLookupError) Error() string { return e.msg }
