package services

import (
	"fsd/internal/models"
	"fsd/internal/providers"
	"fsd/internal/structures"
	"time"
)

const (
	defaultNotifyMax = 2
	defaultBadgeCap  = 99
)

type ToastFavorite struct {
	Login       string `json:"login"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

type ToastLive struct {
	Title     string     `json:"title"`
	Game      string     `json:"game"`
	Viewers   int        `json:"viewers"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
}

type ToastEntry struct {
	Fav  ToastFavorite `json:"fav"`
	Live ToastLive     `json:"live"`
}

type NotifierInterface interface {
	Notify(newlyLive []NewlyLive, liveCount int, prefs models.Preferences) []ToastEntry
}

type Notifier struct {
	publisher PublisherInterface
	metrics   providers.MetricsProviderInterface
	logger    providers.Logger
	max       int
	badgeCap  int
}

// Notify publishes at most max toast entries and the capped badge count.
func (n *Notifier) Notify(newlyLive []NewlyLive, liveCount int, prefs models.Preferences) []ToastEntry {
	limit := min(len(newlyLive), n.max)
	entries := make([]ToastEntry, 0, limit)
	for _, nl := range newlyLive[:limit] {
		entries = append(entries, toastEntry(nl))
	}

	if len(entries) > 0 {
		n.publisher.Publish(PushMessage{
			Type:            MessageToast,
			Entries:         entries,
			DurationSeconds: prefs.ToastDurationSeconds,
		})
		n.metrics.IncNotifications(len(entries))
		n.logger.Infof(providers.TypeSync, "%d favorite(s) went live, notifying %d", len(newlyLive), len(entries))
	}

	badge := min(max(liveCount, 0), n.badgeCap)
	n.publisher.Publish(PushMessage{Type: MessageBadge, Count: &badge})
	n.metrics.SetLiveFavorites(badge)

	return entries
}

func toastEntry(nl NewlyLive) ToastEntry {
	name := nl.Favorite.DisplayName
	if name == "" {
		name = nl.Live.DisplayName
	}
	avatar := nl.Favorite.AvatarURL
	if avatar == "" {
		avatar = nl.Live.AvatarURL
	}
	return ToastEntry{
		Fav: ToastFavorite{
			Login:       nl.Favorite.Login,
			DisplayName: name,
			AvatarURL:   avatar,
		},
		Live: ToastLive{
			Title:     nl.Live.Title,
			Game:      nl.Live.Game,
			Viewers:   nl.Live.Viewers,
			StartedAt: nl.Live.Clone().StartedAt,
		},
	}
}

func NewNotifier(conf *structures.Config, publisher PublisherInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) NotifierInterface {
	limit := conf.Sync.NotifyMax
	if limit <= 0 {
		limit = defaultNotifyMax
	}
	badgeCap := conf.Sync.BadgeCap
	if badgeCap <= 0 {
		badgeCap = defaultBadgeCap
	}
	return &Notifier{
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		max:       limit,
		badgeCap:  badgeCap,
	}
}
