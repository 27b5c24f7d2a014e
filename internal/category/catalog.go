// Package category is the static category catalog. Lookups are pure and
// always succeed: unknown ids resolve to the guaranteed "other" entry.
package category

// Category is display metadata for a bill category.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var catalog = []Category{
	{ID: "food", Name: "Food & Drinks", Color: "#F97316", Icon: "utensils"},
	{ID: "transport", Name: "Transport", Color: "#3B82F6", Icon: "car"},
	{ID: "shopping", Name: "Shopping", Color: "#EC4899", Icon: "shopping-bag"},
	{ID: "entertainment", Name: "Entertainment", Color: "#8B5CF6", Icon: "film"},
	{ID: "travel", Name: "Travel", Color: "#14B8A6", Icon: "plane"},
	{ID: "utilities", Name: "Utilities", Color: "#EAB308", Icon: "bolt"},
	{ID: "health", Name: "Health", Color: "#22C55E", Icon: "heart-pulse"},
	{ID: "other", Name: "Other", Color: "#9CA3AF", Icon: "tag"},
}

var byID = func() map[string]Category {
	m := make(map[string]Category, len(catalog))
	for _, c := range catalog {
		m[c.ID] = c
	}
	return m
}()

// Known reports whether the id is part of the catalog.
func Known(id string) bool {
	_, ok := byID[id]
	return ok
}

// Lookup resolves a category id, falling back to the "other" entry for
// unknown ids.
func Lookup(id string) Category {
	if c, ok := byID[id]; ok {
		return c
	}
	return byID["other"]
}

// All returns the catalog in stable declaration order.
func All() []Category {
	out := make([]Category, len(catalog))
	copy(out, catalog)
	return out
}
