package providers

import (
	"fmt"
	"fsd/internal/structures"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.SetDefault("sync.ttl", 60*time.Second)
	viper.SetDefault("sync.refreshInterval", time.Minute)
	viper.SetDefault("sync.notifyMax", 2)
	viper.SetDefault("sync.badgeCap", 99)
	viper.SetDefault("fetcher.endpoint", "https://gql.twitch.tv/gql")
	viper.SetDefault("fetcher.timeout", 10*time.Second)
	viper.SetDefault("fetcher.defaultAvatar", DefaultAvatarURL)
	viper.SetDefault("watch.debounce", 500*time.Millisecond)

	viper.BindEnv("logger.level", "FSD_LOG_LEVEL")
	viper.BindEnv("sync.ttl", "FSD_SYNC_TTL")
	viper.BindEnv("sync.refreshInterval", "FSD_REFRESH_INTERVAL")
	viper.BindEnv("fetcher.clientId", "FSD_CLIENT_ID")
	viper.BindEnv("persistence.statePath", "FSD_STATE_PATH")
	viper.BindEnv("cache.enabled", "FSD_CACHE_ENABLED")
	viper.BindEnv("cache.size", "FSD_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "FavoriteStatusDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

const DefaultAvatarURL = "https://static-cdn.jtvnw.net/user-default-pictures-uv/75305d54-c7cc-40d1-bb9c-91fbe85943c7-profile_image-70x70.png"
