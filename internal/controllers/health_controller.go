package controllers

import (
	"fmt"
	"fsd/internal/services"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

type HealthController struct {
	service     services.SyncServiceInterface
	broadcaster services.BroadcasterInterface
	startTime   time.Time
}

type healthResponse struct {
	Status          string     `json:"status"`
	Uptime          string     `json:"uptime"`
	UptimeSeconds   float64    `json:"uptime_seconds"`
	LastRefresh     *time.Time `json:"last_refresh"`
	Refreshes       int64      `json:"refreshes"`
	FailedRefreshes int64      `json:"failed_refreshes"`
	FetchBatches    int64      `json:"fetch_batches"`
	Favorites       int        `json:"favorites"`
	Live            int        `json:"live"`
	Subscribers     int        `json:"subscribers"`
	DroppedMessages int64      `json:"dropped_messages"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	stats := hc.service.Stats()
	resp := healthResponse{
		Status:          "ok",
		Uptime:          formatDuration(uptime),
		UptimeSeconds:   uptime.Seconds(),
		Refreshes:       stats.Refreshes,
		FailedRefreshes: stats.FailedRefreshes,
		FetchBatches:    stats.FetchBatches,
		Favorites:       stats.Favorites,
		Live:            stats.Live,
		Subscribers:     hc.broadcaster.SubscriberCount(),
		DroppedMessages: hc.broadcaster.Dropped(),
	}
	if !stats.LastRefresh.IsZero() {
		last := stats.LastRefresh
		resp.LastRefresh = &last
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(service services.SyncServiceInterface, broadcaster services.BroadcasterInterface) *HealthController {
	return &HealthController{
		service:     service,
		broadcaster: broadcaster,
		startTime:   time.Now(),
	}
}
