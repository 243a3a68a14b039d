package grouping

import (
	"fsd/internal/models"
	"sort"
	"time"

	"golang.org/x/text/collate"
)

const (
	UncategorizedID   = "__uncategorized__"
	UncategorizedName = "Uncategorized"
)

type GroupedFavorite struct {
	Favorite models.Favorite  `json:"favorite"`
	Live     models.LiveEntry `json:"live"`
	Recent   bool             `json:"recent"`
}

type CategoryGroup struct {
	Category  models.Category   `json:"category"`
	Favorites []GroupedFavorite `json:"favorites"`
	Depth     int               `json:"depth"`
	Collapsed bool              `json:"collapsed"`
}

type Result struct {
	Groups         []CategoryGroup `json:"groups"`
	TotalLive      int             `json:"totalLive"`
	TotalFavorites int             `json:"totalFavorites"`
}

type Options struct {
	// Collapsed holds collapse state toggled by the user, keyed by category id.
	// It takes precedence over Category.Collapsed.
	Collapsed       map[string]bool
	SortMode        string
	RecentThreshold time.Duration
	Now             time.Time
}

// OptionsFromPreferences derives grouping options from stored preferences.
func OptionsFromPreferences(p models.Preferences, now time.Time) Options {
	return Options{
		Collapsed:       p.CollapsedCategories,
		SortMode:        p.SortMode,
		RecentThreshold: time.Duration(p.RecentLiveThresholdMinutes) * time.Minute,
		Now:             now,
	}
}

// GroupFavorites buckets every counted-live favorite into the first category
// of its own ordered list that exists in the forest, or into the
// uncategorized group. Empty groups are omitted; totals are always reported.
func GroupFavorites(favorites map[string]models.Favorite, liveData map[string]models.LiveEntry, categories []models.Category, opts Options) Result {
	col := newCollator()

	members := make([]GroupedFavorite, 0, len(favorites))
	for login, fav := range favorites {
		entry, ok := CountedLive(login, fav, liveData)
		if !ok {
			continue
		}
		if fav.Login == "" {
			fav.Login = login
		}
		members = append(members, GroupedFavorite{
			Favorite: fav.Clone(),
			Live:     entry.Clone(),
			Recent:   isRecent(fav, entry, opts),
		})
	}
	sortMembers(members, opts.SortMode, col)

	forest := BuildForest(categories)
	groups := make([]CategoryGroup, 0, len(forest)+1)
	slot := make(map[string]int, len(forest))
	for _, node := range forest {
		slot[node.ID] = len(groups)
		groups = append(groups, CategoryGroup{
			Category:  node.Category,
			Depth:     node.Depth,
			Collapsed: collapsedState(opts.Collapsed, node.ID, node.Collapsed),
		})
	}
	uncategorized := len(groups)
	groups = append(groups, CategoryGroup{
		Category:  models.Category{ID: UncategorizedID, Name: UncategorizedName},
		Collapsed: collapsedState(opts.Collapsed, UncategorizedID, false),
	})

	for _, m := range members {
		target := uncategorized
		for _, id := range m.Favorite.Categories {
			if i, ok := slot[id]; ok {
				target = i
				break
			}
		}
		groups[target].Favorites = append(groups[target].Favorites, m)
	}

	result := Result{
		Groups:         make([]CategoryGroup, 0, len(groups)),
		TotalLive:      len(members),
		TotalFavorites: len(favorites),
	}
	for _, g := range groups {
		if len(g.Favorites) > 0 {
			result.Groups = append(result.Groups, g)
		}
	}
	return result
}

func collapsedState(state map[string]bool, id string, fallback bool) bool {
	if v, ok := state[id]; ok {
		return v
	}
	return fallback
}

func isRecent(fav models.Favorite, entry models.LiveEntry, opts Options) bool {
	if opts.RecentThreshold <= 0 || !fav.HighlightEnabled() || entry.StartedAt == nil {
		return false
	}
	age := opts.Now.Sub(*entry.StartedAt)
	return age >= 0 && age <= opts.RecentThreshold
}

func displayName(m GroupedFavorite) string {
	switch {
	case m.Favorite.DisplayName != "":
		return m.Favorite.DisplayName
	case m.Live.DisplayName != "":
		return m.Live.DisplayName
	default:
		return m.Favorite.Login
	}
}

func sortMembers(members []GroupedFavorite, mode string, col *collate.Collator) {
	byName := func(a, b GroupedFavorite) int {
		if c := col.CompareString(displayName(a), displayName(b)); c != 0 {
			return c
		}
		switch {
		case a.Favorite.Login < b.Favorite.Login:
			return -1
		case a.Favorite.Login > b.Favorite.Login:
			return 1
		}
		return 0
	}
	byViewers := func(a, b GroupedFavorite) bool {
		if a.Live.Viewers != b.Live.Viewers {
			return a.Live.Viewers > b.Live.Viewers
		}
		return byName(a, b) < 0
	}

	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		switch mode {
		case models.SortByName:
			return byName(a, b) < 0
		case models.SortByRecent:
			as, bs := a.Live.StartedAt, b.Live.StartedAt
			switch {
			case as != nil && bs != nil && !as.Equal(*bs):
				return as.After(*bs)
			case as != nil && bs == nil:
				return true
			case as == nil && bs != nil:
				return false
			}
			return byViewers(a, b)
		default:
			return byViewers(a, b)
		}
	})
}
