package models

type Category struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ParentID  string  `json:"parentId,omitempty"`
	SortOrder float64 `json:"sortOrder"`
	Collapsed bool    `json:"collapsed"`
}

func CloneCategories(in []Category) []Category {
	if in == nil {
		return nil
	}
	out := make([]Category, len(in))
	copy(out, in)
	return out
}
