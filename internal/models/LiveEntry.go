package models

import "time"

type LiveEntry struct {
	Login       string     `json:"login"`
	DisplayName string     `json:"displayName"`
	AvatarURL   string     `json:"avatarUrl"`
	IsLive      bool       `json:"isLive"`
	Viewers     int        `json:"viewers"`
	Title       string     `json:"title"`
	Game        string     `json:"game"`
	StartedAt   *time.Time `json:"startedAt"`
}

// OfflineEntry is the fallback used whenever a status cannot be determined.
func OfflineEntry(login, displayName, avatarURL string) LiveEntry {
	if displayName == "" {
		displayName = login
	}
	return LiveEntry{
		Login:       login,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}
}

func (e LiveEntry) Clone() LiveEntry {
	out := e
	if e.StartedAt != nil {
		t := *e.StartedAt
		out.StartedAt = &t
	}
	return out
}

func CloneLiveData(in map[string]LiveEntry) map[string]LiveEntry {
	out := make(map[string]LiveEntry, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

// CacheRecord is one complete generation of live data. It is replaced as a
// whole and never mutated after construction.
type CacheRecord struct {
	LiveData  map[string]LiveEntry `json:"liveData"`
	Timestamp time.Time            `json:"timestamp"`
}
