package campus

import (
	"context"
	"maps"
	"slices"
	"strings"
)

// TagCount is one course tag with how many courses carry it.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TagUsage returns every course tag, most used first, ties broken by name.
// A non-positive limit returns everything.
func (r *Registry) TagUsage(ctx context.Context, limit int) ([]TagCount, error) {
	courses, err := r.stores.Courses.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, course := range courses {
		for _, tag := range course.Tags {
			counts[tag]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, TagCount{Name: name, Count: count})
	}
	slices.SortFunc(out, func(a, b TagCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Name, b.Name)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// SuggestTags returns the distinct course tags containing txt as a
// substring, sorted by name. An empty txt suggests nothing.
func (r *Registry) SuggestTags(ctx context.Context, txt string) ([]string, error) {
	if txt == "" {
		return nil, nil
	}
	courses, err := r.stores.Courses.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, course := range courses {
		for _, tag := range course.Tags {
			if strings.Contains(tag, txt) {
				seen[tag] = struct{}{}
			}
		}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}
