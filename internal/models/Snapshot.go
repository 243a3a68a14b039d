package models

import "time"

// Snapshot is the externally visible result of one refresh cycle. Values
// handed out are deep copies, so holders may not affect each other.
type Snapshot struct {
	Favorites   map[string]Favorite  `json:"favorites"`
	Categories  []Category           `json:"categories"`
	Preferences Preferences          `json:"preferences"`
	LiveData    map[string]LiveEntry `json:"liveData"`
	Timestamp   time.Time            `json:"timestamp"`
	// Generation counts completed refreshes; it distinguishes generations
	// that share a timestamp.
	Generation  uint64               `json:"generation"`
}

func NewSnapshot(state *State, record *CacheRecord) *Snapshot {
	st := state.Clone()
	snap := &Snapshot{
		Favorites:   st.Favorites,
		Categories:  st.Categories,
		Preferences: st.Preferences,
		LiveData:    map[string]LiveEntry{},
	}
	if snap.Categories == nil {
		snap.Categories = []Category{}
	}
	if record != nil {
		snap.LiveData = CloneLiveData(record.LiveData)
		snap.Timestamp = record.Timestamp
	}
	return snap
}

func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return &Snapshot{
			Favorites:   map[string]Favorite{},
			Categories:  []Category{},
			Preferences: DefaultPreferences(),
			LiveData:    map[string]LiveEntry{},
		}
	}
	return &Snapshot{
		Favorites:   CloneFavorites(s.Favorites),
		Categories:  CloneCategories(s.Categories),
		Preferences: s.Preferences.Clone(),
		LiveData:    CloneLiveData(s.LiveData),
		Timestamp:   s.Timestamp,
		Generation:  s.Generation,
	}
}
