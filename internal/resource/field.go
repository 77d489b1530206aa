package resource

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"campus.org/internal/ids"
)

// Kind is the canonical value type a field accepts and emits.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindTime
	KindStringList
	// KindRef holds one related entity's public identifier.
	KindRef
	// KindRefList holds a set of related public identifiers.
	KindRefList
)

// Resolver checks which of the given public identifiers do not exist.
// Relation assignment is all-or-nothing: any missing id fails the whole field.
type Resolver func(ctx context.Context, publicIDs []string) (missing []string, err error)

// Field describes one external field of an entity type: how to read it, how
// to write it, and what to validate on the way in. Get must return a
// comparable snapshot (dereferenced pointers, copied slices) so the schema
// can detect whether a Set actually changed anything.
type Field[T Entity] struct {
	Name      string
	Kind      Kind
	Required  bool
	Unique    bool
	WriteOnly bool
	Resolve   Resolver
	Get       func(T) any
	Set       func(T, any) error
	// Validate runs after coercion and before Set. Optional.
	Validate func(any) error
}

const (
	msgRequired     = "This field is required."
	msgUnknownField = "Unknown field."
	msgReadOnly     = "This field is read-only."
)

// coerce normalizes a JSON-decoded value into the field's canonical Go type:
// string, int, bool, time.Time, []string. A nil value survives as nil and
// means "clear" for optional fields.
func coerce(kind Kind, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", raw)
		}
		return strings.TrimSpace(s), nil
	case KindRef:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", raw)
		}
		// An empty ref means "unset": entities encode absent relations as
		// "", and that form must survive a round trip through the edit path.
		if s = strings.TrimSpace(s); s == "" {
			return nil, nil
		}
		return s, nil
	case KindInt:
		switch v := raw.(type) {
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("expected an integer, got %v", v)
			}
			return int(v), nil
		case int:
			return v, nil
		default:
			return nil, fmt.Errorf("expected an integer, got %T", raw)
		}
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a boolean, got %T", raw)
		}
		return b, nil
	case KindTime:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected a timestamp string, got %T", raw)
		}
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return ts.UTC(), nil
		}
		ts, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a valid timestamp", s)
		}
		return ts.UTC(), nil
	case KindStringList, KindRefList:
		items, ok := raw.([]any)
		if !ok {
			if ss, ok := raw.([]string); ok {
				return append([]string(nil), ss...), nil
			}
			return nil, fmt.Errorf("expected a list of strings, got %T", raw)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of strings, got %T element", item)
			}
			out = append(out, strings.TrimSpace(s))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %d", kind)
	}
}

// resolveRefs validates identifier shape and existence for ref fields.
func resolveRefs[T Entity](ctx context.Context, f *Field[T], value any) error {
	var refIDs []string
	switch f.Kind {
	case KindRef:
		if value == nil {
			return nil
		}
		refIDs = []string{value.(string)}
	case KindRefList:
		if value == nil {
			return nil
		}
		refIDs = value.([]string)
	default:
		return nil
	}
	for _, id := range refIDs {
		if !ids.IsPublic(id) {
			return &refLookupError{msg: fmt.Sprintf("%q is not a valid identifier", id)}
		}
	}
	if f.Resolve == nil || len(refIDs) == 0 {
		return nil
	}
	missing, err := f.Resolve(ctx, refIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &refLookupError{msg: "unknown identifiers: " + strings.Join(missing, ", ")}
	}
	return nil
}
