package config_test

import (
	"errors"
	"os"
	"testing"

	"github.com/okian/gigradar/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()
		setRequiredCredentials()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults and credentials only", func() {
			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.BatchSize, convey.ShouldEqual, 10)
				convey.So(cfg.CooldownSeconds, convey.ShouldEqual, 120)
				convey.So(cfg.Sources, convey.ShouldResemble, []string{"ticketmaster", "bandsintown"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GIGRADAR_ADDR", ":8080")
			_ = os.Setenv("GIGRADAR_BATCH_SIZE", "5")
			_ = os.Setenv("GIGRADAR_COOLDOWN_SECONDS", "30")
			_ = os.Setenv("GIGRADAR_SIMILARITY_THRESHOLD", "0.9")
			_ = os.Setenv("GIGRADAR_USERS", "alice, bob ,,carol")
			_ = os.Setenv("GIGRADAR_SOURCES", "static")
			_ = os.Setenv("GIGRADAR_STATIC_CATALOG_PATH", "/srv/catalog.json")

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.BatchSize, convey.ShouldEqual, 5)
				convey.So(cfg.CooldownSeconds, convey.ShouldEqual, 30)
				convey.So(cfg.SimilarityThreshold, convey.ShouldEqual, 0.9)
				convey.So(cfg.Users, convey.ShouldResemble, []string{"alice", "bob", "carol"})
				convey.So(cfg.Sources, convey.ShouldResemble, []string{"static"})
				convey.So(cfg.StaticCatalogPath, convey.ShouldEqual, "/srv/catalog.json")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
batch_size: 7
horizon_days: 30
users:
  - dana
  - eve
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("GIGRADAR_CONFIG", tmpFile)
			_ = os.Setenv("GIGRADAR_BATCH_SIZE", "3")

			cfg, err := config.Load()

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.BatchSize, convey.ShouldEqual, 3)
				convey.So(cfg.HorizonDays, convey.ShouldEqual, 30)
				convey.So(cfg.Users, convey.ShouldResemble, []string{"dana", "eve"})
				convey.So(cfg.MaxArtists, convey.ShouldEqual, 30)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("GIGRADAR_CONFIG", tmpFile)

			cfg, err := config.Load()

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("GIGRADAR_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a required credential is missing", func() {
			_ = os.Unsetenv("GIGRADAR_TICKETMASTER_API_KEY")

			cfg, err := config.Load()

			convey.Convey("Then it should fail as a configuration error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "ticketmaster_api_key")
			})
		})

		convey.Convey("When the disabled source has no credential", func() {
			_ = os.Unsetenv("GIGRADAR_BANDSINTOWN_APP_ID")
			_ = os.Setenv("GIGRADAR_SOURCES", "ticketmaster")

			cfg, err := config.Load()

			convey.Convey("Then the credential is not required", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Sources, convey.ShouldResemble, []string{"ticketmaster"})
			})
		})

		convey.Convey("When the static source has no catalog", func() {
			_ = os.Setenv("GIGRADAR_SOURCES", "static")

			_, err := config.Load()

			convey.Convey("Then it should name the missing path", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "static_catalog_path")
			})
		})

		convey.Convey("When the discord calendar lacks a token", func() {
			_ = os.Setenv("GIGRADAR_CALENDAR", "discord")
			_ = os.Setenv("GIGRADAR_DISCORD_GUILD_ID", "123")

			_, err := config.Load()

			convey.Convey("Then it should name the missing token", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "discord_bot_token")
			})
		})

		convey.Convey("When a threshold is out of range", func() {
			_ = os.Setenv("GIGRADAR_SIMILARITY_THRESHOLD", "1.5")

			_, err := config.Load()

			convey.Convey("Then validation should reject it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "SimilarityThreshold")
			})
		})

		convey.Convey("When an unknown source is configured", func() {
			_ = os.Setenv("GIGRADAR_SOURCES", "ticketmaster,songkick")

			_, err := config.Load()

			convey.Convey("Then validation should reject it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("GIGRADAR_BATCH_SIZE", "not_a_number")

			cfg, err := config.Load()

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("GIGRADAR_ADDR", "")

			cfg, err := config.Load()

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.
func setRequiredCredentials() {
	_ = os.Setenv("GIGRADAR_LASTFM_API_KEY", "lfm")
	_ = os.Setenv("GIGRADAR_TICKETMASTER_API_KEY", "tm")
	_ = os.Setenv("GIGRADAR_BANDSINTOWN_APP_ID", "bit")
}

func clearConfigEnvVars() {
	envVars := []string{
		"GIGRADAR_CONFIG",
		"GIGRADAR_ADDR",
		"GIGRADAR_BATCH_SIZE",
		"GIGRADAR_COOLDOWN_SECONDS",
		"GIGRADAR_SIMILARITY_THRESHOLD",
		"GIGRADAR_USERS",
		"GIGRADAR_SOURCES",
		"GIGRADAR_STATIC_CATALOG_PATH",
		"GIGRADAR_CALENDAR",
		"GIGRADAR_DISCORD_GUILD_ID",
		"GIGRADAR_DISCORD_BOT_TOKEN",
		"GIGRADAR_LASTFM_API_KEY",
		"GIGRADAR_TICKETMASTER_API_KEY",
		"GIGRADAR_BANDSINTOWN_APP_ID",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "gigradar-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
