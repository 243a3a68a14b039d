package controllers

import (
	"context"
	"errors"
	"fsd/internal/grouping"
	"fsd/internal/models"
	"fsd/internal/providers"
	"fsd/internal/services"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

type ApiController struct {
	logger  providers.Logger
	service services.SyncServiceInterface
	cache   providers.CacheProviderInterface
}

type errorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type groupsResponse struct {
	grouping.Result
	Timestamp  time.Time `json:"timestamp"`
	Generation uint64    `json:"generation"`
}

func NewApiController(logger providers.Logger, service services.SyncServiceInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
		cache:   cache,
	}
}

func isForced(r *http.Request) bool {
	v := r.URL.Query().Get("force")
	if v == "" {
		return false
	}
	forced, err := strconv.ParseBool(v)
	return err == nil && forced
}

func writeJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (ac *ApiController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	ac.logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "%s %s failed: %s", r.Method, r.URL.Path, err)

	gson, _ := json.Marshal(errorResponse{Error: true, Message: err.Error()})
	writeJSON(w, status, gson)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, r *http.Request, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.writeError(w, r, err)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)
	writeJSON(w, http.StatusOK, gson)
}

func (ac *ApiController) serveSnapshot(w http.ResponseWriter, r *http.Request, force bool, reason services.Reason) {
	snap, err := ac.service.GetSnapshot(r.Context(), force, reason)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}

	gson, err := json.Marshal(snap)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, gson)
}

// GetSnapshot answers a display surface asking for state.
func (ac *ApiController) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ac.serveSnapshot(w, r, isForced(r), services.ReasonPopup)
}

// Refresh forces a new generation regardless of cache age.
func (ac *ApiController) Refresh(w http.ResponseWriter, r *http.Request) {
	ac.serveSnapshot(w, r, true, services.ReasonPopup)
}

// GetGroups renders the grouped display structure. Renders are cached per
// snapshot generation, so repeated polls within the TTL skip the grouping.
func (ac *ApiController) GetGroups(w http.ResponseWriter, r *http.Request) {
	snap, err := ac.service.GetSnapshot(r.Context(), isForced(r), services.ReasonPopup)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}

	key := "groups:" + strconv.FormatInt(snap.Timestamp.UnixNano(), 10) + ":" + strconv.FormatUint(snap.Generation, 10)
	ac.serveFromCacheOrCompute(w, r, key, func() (any, error) {
		return renderGroups(snap), nil
	})
}

func renderGroups(snap *models.Snapshot) groupsResponse {
	opts := grouping.OptionsFromPreferences(snap.Preferences, snap.Timestamp)
	return groupsResponse{
		Result:    grouping.GroupFavorites(snap.Favorites, snap.LiveData, snap.Categories, opts),
		Timestamp:  snap.Timestamp,
		Generation: snap.Generation,
	}
}
