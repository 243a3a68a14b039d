package models

// CategoryFilter restricts when a favorite counts as live to a set of game names.
type CategoryFilter struct {
	Enabled    bool     `json:"enabled"`
	Categories []string `json:"categories"`
}

type Favorite struct {
	Login                  string          `json:"login"`
	DisplayName            string          `json:"displayName"`
	AvatarURL              string          `json:"avatarUrl"`
	Categories             []string        `json:"categories"`
	CategoryFilter         *CategoryFilter `json:"categoryFilter,omitempty"`
	RecentHighlightEnabled *bool           `json:"recentHighlightEnabled,omitempty"`
}

// HighlightEnabled reports the recent-highlight flag, which defaults to true.
func (f Favorite) HighlightEnabled() bool {
	return f.RecentHighlightEnabled == nil || *f.RecentHighlightEnabled
}

// HasActiveFilter is true only for an enabled filter with at least one category.
func (f Favorite) HasActiveFilter() bool {
	return f.CategoryFilter != nil && f.CategoryFilter.Enabled && len(f.CategoryFilter.Categories) > 0
}

func (f Favorite) Clone() Favorite {
	out := f
	out.Categories = cloneStrings(f.Categories)
	if f.CategoryFilter != nil {
		cf := CategoryFilter{
			Enabled:    f.CategoryFilter.Enabled,
			Categories: cloneStrings(f.CategoryFilter.Categories),
		}
		out.CategoryFilter = &cf
	}
	if f.RecentHighlightEnabled != nil {
		v := *f.RecentHighlightEnabled
		out.RecentHighlightEnabled = &v
	}
	return out
}

func CloneFavorites(in map[string]Favorite) map[string]Favorite {
	out := make(map[string]Favorite, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
