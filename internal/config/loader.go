package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "GIGRADAR_"

// listKeys are comma-separated when supplied through the environment.
var listKeys = map[string]bool{ //nolint:gochecknoglobals // fixed lookup table
	"users":   true,
	"sources": true,
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GIGRADAR_CONFIG is set
//  3. env (prefix GIGRADAR_)
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(New(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("%w: defaults: %w", ErrLoadConfig, err)
	}

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// GIGRADAR_BATCH_SIZE -> batch_size; underscores are preserved to match
	// the flat koanf tags on the struct.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and the credentials required by enabled integrations.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var missing []string
	if strings.TrimSpace(c.LastFMAPIKey) == "" {
		missing = append(missing, "lastfm_api_key")
	}
	if c.HasSource(SourceTicketmaster) && strings.TrimSpace(c.TicketmasterAPIKey) == "" {
		missing = append(missing, "ticketmaster_api_key")
	}
	if c.HasSource(SourceBandsintown) && strings.TrimSpace(c.BandsintownAppID) == "" {
		missing = append(missing, "bandsintown_app_id")
	}
	if c.HasSource(SourceStatic) && strings.TrimSpace(c.StaticCatalogPath) == "" {
		missing = append(missing, "static_catalog_path")
	}
	if c.Calendar == CalendarDiscord {
		if strings.TrimSpace(c.DiscordBotToken) == "" {
			missing = append(missing, "discord_bot_token")
		}
		if strings.TrimSpace(c.DiscordGuildID) == "" {
			missing = append(missing, "discord_guild_id")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
