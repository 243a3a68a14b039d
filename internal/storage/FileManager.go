package storage

import (
	"errors"
	"fmt"
	"fsd/internal/models"
	"fsd/internal/providers"
	"fsd/internal/storage/interfaces"
	"fsd/internal/structures"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
)

// FileManager persists the user state as plain JSON and the live cache as
// zstd-compressed JSON. Both files are replaced atomically.
type FileManager struct {
	statePath     string
	liveCachePath string
	compressor    interfaces.CompressorInterface
	logger        providers.Logger
	mu            sync.Mutex
}

func NewFileManager(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		statePath:     conf.Persistence.StatePath,
		liveCachePath: conf.Persistence.LiveCachePath,
		compressor:    compressor,
		logger:        logger,
	}
}

// LoadState reads the persisted state. A missing file yields an empty state
// with default preferences.
func (f *FileManager) LoadState() (*models.State, error) {
	data, err := os.ReadFile(f.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return normalizeState(nil), nil
		}
		return nil, err
	}

	var state models.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", f.statePath, err)
	}
	return normalizeState(&state), nil
}

func (f *FileManager) SaveState(state *models.State) error {
	data, err := json.MarshalIndent(normalizeState(state.Clone()), "", "  ")
	if err != nil {
		return err
	}
	return f.writeAtomic(f.statePath, data)
}

// StateExists reports whether a state document is present on disk.
func (f *FileManager) StateExists() bool {
	_, err := os.Stat(f.statePath)
	return err == nil
}

// LoadLiveCache returns the last persisted cache generation, or nil when none
// was written yet.
func (f *FileManager) LoadLiveCache() (*models.CacheRecord, error) {
	data, err := os.ReadFile(f.liveCachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	decompressed, err := f.compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress live cache: %w", err)
	}

	var record models.CacheRecord
	if err := json.Unmarshal(decompressed, &record); err != nil {
		return nil, fmt.Errorf("decode live cache: %w", err)
	}
	if record.LiveData == nil {
		record.LiveData = map[string]models.LiveEntry{}
	}
	for login, entry := range record.LiveData {
		if entry.Login == "" {
			entry.Login = login
			record.LiveData[login] = entry
		}
	}
	return &record, nil
}

func (f *FileManager) SaveLiveCache(record *models.CacheRecord) error {
	if record == nil {
		return errors.New("nil live cache record")
	}

	jsonData, err := json.Marshal(record)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}
	return f.writeAtomic(f.liveCachePath, data)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

func (f *FileManager) writeAtomic(fileName string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

// normalizeState fills in defaults and makes every favorite carry its own
// login, so callers can rely on Favorites[k].Login == k.
func normalizeState(state *models.State) *models.State {
	if state == nil {
		state = &models.State{}
	}
	if state.Favorites == nil {
		state.Favorites = map[string]models.Favorite{}
	}
	for login, fav := range state.Favorites {
		if fav.Login != login {
			fav.Login = login
			state.Favorites[login] = fav
		}
	}
	if state.Categories == nil {
		state.Categories = []models.Category{}
	}

	defaults := models.DefaultPreferences()
	if state.Preferences.SortMode == "" {
		state.Preferences.SortMode = defaults.SortMode
	}
	if state.Preferences.ToastDurationSeconds <= 0 {
		state.Preferences.ToastDurationSeconds = defaults.ToastDurationSeconds
	}
	if state.Preferences.RecentLiveThresholdMinutes <= 0 {
		state.Preferences.RecentLiveThresholdMinutes = defaults.RecentLiveThresholdMinutes
	}
	return state
}
