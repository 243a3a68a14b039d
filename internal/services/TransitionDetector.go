package services

import (
	"fsd/internal/grouping"
	"fsd/internal/models"
	"sort"
)

type Reason string

const (
	ReasonInstall         Reason = "install"
	ReasonStartup         Reason = "startup"
	ReasonAlarm           Reason = "alarm"
	ReasonPopup           Reason = "popup"
	ReasonFavoritesChange Reason = "favorites-change"
)

// Refreshes triggered by these reasons never notify, so a first load does
// not announce every channel that is already live.
var suppressedReasons = map[Reason]struct{}{
	ReasonInstall: {},
	ReasonStartup: {},
}

type NewlyLive struct {
	Favorite models.Favorite
	Live     models.LiveEntry
}

// DetectNewlyLive lists favorites that are counted live in curr but were not
// in prev, ordered by viewers descending then login.
func DetectNewlyLive(prev, curr map[string]models.LiveEntry, favorites map[string]models.Favorite, reason Reason) []NewlyLive {
	if _, ok := suppressedReasons[reason]; ok {
		return nil
	}

	var out []NewlyLive
	for login, fav := range favorites {
		if !fav.HighlightEnabled() {
			continue
		}
		entry, live := grouping.CountedLive(login, fav, curr)
		if !live {
			continue
		}
		if _, wasLive := grouping.CountedLive(login, fav, prev); wasLive {
			continue
		}
		if fav.Login == "" {
			fav.Login = login
		}
		out = append(out, NewlyLive{Favorite: fav, Live: entry})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Live.Viewers != out[j].Live.Viewers {
			return out[i].Live.Viewers > out[j].Live.Viewers
		}
		return out[i].Favorite.Login < out[j].Favorite.Login
	})
	return out
}
