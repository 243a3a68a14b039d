package structures

import (
	"net/http"
	"time"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

// Route is one API path with every method registered on it.
type Route struct {
	Url     string
	Methods []string
	Handler http.Handler
}

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	StatePath     string `yaml:"statePath" validate:"required|unixPath"`
	LiveCachePath string `yaml:"liveCachePath" validate:"required|unixPath"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type SyncConfig struct {
	TTL             time.Duration `yaml:"ttl" validate:"required|min:1"`
	RefreshInterval time.Duration `yaml:"refreshInterval" validate:"required|min:1"`
	NotifyMax       int           `yaml:"notifyMax"`
	BadgeCap        int           `yaml:"badgeCap"`
}

type FetcherConfig struct {
	Endpoint      string        `yaml:"endpoint" validate:"required|fullUrl"`
	ClientID      string        `yaml:"clientId"`
	Timeout       time.Duration `yaml:"timeout"`
	DefaultAvatar string        `yaml:"defaultAvatar"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Sync        SyncConfig    `yaml:"sync"`
	Fetcher     FetcherConfig `yaml:"fetcher"`
	WebServer   Server        `yaml:"webServer"`
	Persistence Persistence   `yaml:"persistence"`
	Logger      LoggerConfig  `yaml:"logger"`
	Cache       CacheConfig   `yaml:"cache"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Watch       WatchConfig   `yaml:"watch"`
}
