// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and GIGRADAR_* env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"time"
)

// Source names accepted in Config.Sources.
const (
	SourceTicketmaster = "ticketmaster"
	SourceBandsintown  = "bandsintown"
	SourceStatic       = "static"
)

// Calendar backends accepted in Config.Calendar.
const (
	CalendarMemory  = "memory"
	CalendarDiscord = "discord"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// Users lists the Last.fm usernames whose listening history drives matching.
	Users []string `koanf:"users"`
	// ProfilePeriod is the Last.fm top-artists period (7day, 1month, ...).
	ProfilePeriod string `koanf:"profile_period" validate:"oneof=overall 7day 1month 3month 6month 12month"`
	// ProfileLimit caps the top artists fetched per user.
	ProfileLimit int `koanf:"profile_limit" validate:"gt=0,lte=1000"`

	// Credentials.
	LastFMAPIKey       string `koanf:"lastfm_api_key"`
	TicketmasterAPIKey string `koanf:"ticketmaster_api_key"`
	BandsintownAppID   string `koanf:"bandsintown_app_id"`
	DiscordBotToken    string `koanf:"discord_bot_token"`
	DiscordGuildID     string `koanf:"discord_guild_id"`
	DiscordWebhookURL  string `koanf:"discord_webhook_url" validate:"omitempty,url"`

	// StaticCatalogPath is the JSON catalog served by the static source.
	StaticCatalogPath string `koanf:"static_catalog_path"`

	// Sources lists event providers in query order.
	Sources []string `koanf:"sources" validate:"min=1,dive,oneof=ticketmaster bandsintown static"`
	// Calendar selects the scheduled-entry store.
	Calendar string `koanf:"calendar" validate:"oneof=memory discord"`

	// Search area.
	City     string `koanf:"city"`
	Region   string `koanf:"region"`
	Country  string `koanf:"country"`
	Category string `koanf:"category"`

	// Matching and dedup tuning.
	SimilarityThreshold  float64 `koanf:"similarity_threshold" validate:"gt=0,lte=1"`
	BatchSize            int     `koanf:"batch_size" validate:"gt=0"`
	CooldownSeconds      int     `koanf:"cooldown_seconds" validate:"gte=0"`
	HorizonDays          int     `koanf:"horizon_days" validate:"gt=0"`
	MaxArtists           int     `koanf:"max_artists" validate:"gte=0"`
	DuplicateWindowHours int     `koanf:"duplicate_window_hours" validate:"gt=0"`

	// Provider I/O.
	RequestTimeoutSeconds int `koanf:"request_timeout_seconds" validate:"gt=0"`
	RequestIntervalMS     int `koanf:"request_interval_ms" validate:"gte=0"`
	EventPageSize         int `koanf:"event_page_size" validate:"gt=0,lte=200"`

	// RunQueueSize bounds run triggers waiting behind the active run.
	RunQueueSize int `koanf:"run_queue_size" validate:"gte=1"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		Users:                 []string{},
		ProfilePeriod:         "1month",
		ProfileLimit:          100,
		Sources:               []string{SourceTicketmaster, SourceBandsintown},
		Calendar:              CalendarMemory,
		City:                  "Atlanta",
		Region:                "GA",
		Country:               "US",
		Category:              "music",
		SimilarityThreshold:   0.85,
		BatchSize:             10,
		CooldownSeconds:       120,
		HorizonDays:           90,
		MaxArtists:            30,
		DuplicateWindowHours:  24,
		RequestTimeoutSeconds: 15,
		RequestIntervalMS:     100,
		EventPageSize:         10,
		RunQueueSize:          1,
	}
}

// Cooldown returns the inter-batch pause.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// RequestTimeout returns the per-request provider timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// RequestInterval returns the minimum spacing between provider requests.
func (c *Config) RequestInterval() time.Duration {
	return time.Duration(c.RequestIntervalMS) * time.Millisecond
}

// DuplicateWindow returns the fuzzy-duplicate time window.
func (c *Config) DuplicateWindow() time.Duration {
	return time.Duration(c.DuplicateWindowHours) * time.Hour
}

// HasSource reports whether name is an enabled event source.
func (c *Config) HasSource(name string) bool {
	for _, s := range c.Sources {
		if s == name {
			return true
		}
	}
	return false
}
