package models

const (
	SortByViewers = "viewers"
	SortByName    = "name"
	SortByRecent  = "recent"
)

type Preferences struct {
	SortMode                   string          `json:"sortMode"`
	ToastDurationSeconds       int             `json:"toastDurationSeconds"`
	RecentLiveThresholdMinutes int             `json:"recentLiveThresholdMinutes"`
	CollapsedCategories        map[string]bool `json:"collapsedCategories,omitempty"`
}

func (p Preferences) Clone() Preferences {
	out := p
	if p.CollapsedCategories != nil {
		out.CollapsedCategories = make(map[string]bool, len(p.CollapsedCategories))
		for k, v := range p.CollapsedCategories {
			out.CollapsedCategories[k] = v
		}
	}
	return out
}

// DefaultPreferences mirrors the values a fresh install starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		SortMode:                   SortByViewers,
		ToastDurationSeconds:       6,
		RecentLiveThresholdMinutes: 10,
	}
}

// State is the persisted user state read at the start of every refresh.
type State struct {
	Favorites   map[string]Favorite `json:"favorites"`
	Categories  []Category          `json:"categories"`
	Preferences Preferences         `json:"preferences"`
}

func (s *State) Clone() *State {
	if s == nil {
		return &State{Favorites: map[string]Favorite{}, Preferences: DefaultPreferences()}
	}
	return &State{
		Favorites:   CloneFavorites(s.Favorites),
		Categories:  CloneCategories(s.Categories),
		Preferences: s.Preferences.Clone(),
	}
}
