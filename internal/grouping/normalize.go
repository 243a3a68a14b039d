package grouping

import (
	"fsd/internal/models"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName case-folds s and strips diacritics, so "Café" and "cafe"
// compare equal. Transformers are stateful, so each call builds its own.
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.TrimSpace(cases.Fold().String(stripped))
}

// MatchesFilter applies a favorite's category filter to a live entry.
func MatchesFilter(fav models.Favorite, entry models.LiveEntry) bool {
	if !fav.HasActiveFilter() {
		return true
	}
	game := NormalizeName(entry.Game)
	if game == "" {
		return false
	}
	for _, c := range fav.CategoryFilter.Categories {
		if NormalizeName(c) == game {
			return true
		}
	}
	return false
}

// CountedLive returns the live entry for login when it is live and passes
// the favorite's category filter.
func CountedLive(login string, fav models.Favorite, liveData map[string]models.LiveEntry) (models.LiveEntry, bool) {
	entry, ok := liveData[login]
	if !ok || !entry.IsLive {
		return models.LiveEntry{}, false
	}
	if !MatchesFilter(fav, entry) {
		return models.LiveEntry{}, false
	}
	return entry, true
}

// CountLive counts favorites that are live after filtering.
func CountLive(favorites map[string]models.Favorite, liveData map[string]models.LiveEntry) int {
	n := 0
	for login, fav := range favorites {
		if _, ok := CountedLive(login, fav, liveData); ok {
			n++
		}
	}
	return n
}

// newCollator returns a case-insensitive collator. collate.Collator keeps
// internal buffers and must not be shared between goroutines.
func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.IgnoreCase)
}
