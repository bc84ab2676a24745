package coord

import (
	"sort"

	"github.com/ppiankov/persona/internal/model"
)

// Merge returns the union of fresh and cached items keyed on fullname, most
// recent first. Fresh items win when both sides hold the same fullname.
func Merge(fresh, cached []model.Item) []model.Item {
	seen := make(map[string]struct{}, len(fresh)+len(cached))
	merged := make([]model.Item, 0, len(fresh)+len(cached))

	for _, group := range [][]model.Item{fresh, cached} {
		for _, item := range group {
			name := item.Fullname()
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			merged = append(merged, item)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return model.Newer(merged[i], merged[j])
	})
	return merged
}

func head(items []model.Item, n int) []model.Item {
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	return append([]model.Item(nil), items...)
}
