package main

import (
	"fmt"

	"github.com/okian/gigradar/internal/adapters/calendar"
	"github.com/okian/gigradar/internal/adapters/httpclient"
	"github.com/okian/gigradar/internal/adapters/lastfm"
	"github.com/okian/gigradar/internal/adapters/notify"
	"github.com/okian/gigradar/internal/adapters/source"
	service "github.com/okian/gigradar/internal/app"
	"github.com/okian/gigradar/internal/config"
	"github.com/okian/gigradar/internal/domain/dates"
	"github.com/okian/gigradar/internal/domain/dedupe"
	"github.com/okian/gigradar/internal/domain/matching"
	"github.com/okian/gigradar/internal/domain/similarity"
	"github.com/okian/gigradar/pkg/logger"
)

// buildService assembles the run service from configuration.
func buildService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	clock := dates.NewValidator()

	sources, err := buildSources(cfg, log)
	if err != nil {
		return nil, err
	}
	store := buildStore(cfg)

	profiles := lastfm.New(cfg.LastFMAPIKey, newClient(cfg, lastfm.BaseURL),
		lastfm.WithLogger(log.Named("lastfm")))

	aggregator := matching.New(
		similarity.New(similarity.WithThreshold(cfg.SimilarityThreshold)),
		matching.WithHorizonDays(cfg.HorizonDays),
		matching.WithDates(clock),
	)

	orchestrator := service.NewOrchestrator(profiles, sources, aggregator,
		service.WithUsers(cfg.Users...),
		service.WithProfilePeriod(cfg.ProfilePeriod, cfg.ProfileLimit),
		service.WithBatchSize(cfg.BatchSize),
		service.WithMaxArtists(cfg.MaxArtists),
		service.WithHorizonDays(cfg.HorizonDays),
		service.WithCooldownGate(service.TimerGate{Delay: cfg.Cooldown()}),
		service.WithSearchArea(cfg.City, cfg.Region, cfg.Country, cfg.Category, cfg.EventPageSize),
		service.WithOrchestratorDates(clock),
		service.WithOrchestratorLogger(log.Named("orchestrator")),
	)

	resolver := dedupe.NewResolver(store,
		dedupe.WithWindow(cfg.DuplicateWindow()),
		dedupe.WithLogger(log.Named("resolver")),
	)

	return service.New(orchestrator, store,
		service.WithQueueSize(cfg.RunQueueSize),
		service.WithLogger(log.Named("service")),
		service.WithResolver(resolver),
		service.WithSink(buildSink(cfg, clock, log)),
	), nil
}

// buildSources returns the enabled providers in configured order, each
// behind a timeout and circuit breaker.
func buildSources(cfg *config.Config, log logger.Logger) ([]source.Source, error) {
	out := make([]source.Source, 0, len(cfg.Sources))
	for _, name := range cfg.Sources {
		var src source.Source
		switch name {
		case config.SourceTicketmaster:
			src = source.NewTicketmaster(cfg.TicketmasterAPIKey, newClient(cfg, source.TicketmasterBaseURL))
		case config.SourceBandsintown:
			src = source.NewBandsintown(cfg.BandsintownAppID, newClient(cfg, source.BandsintownBaseURL))
		case config.SourceStatic:
			events, err := source.LoadCatalog(cfg.StaticCatalogPath)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
			}
			src = source.NewStatic(events)
		default:
			return nil, fmt.Errorf("%w: unknown source %q", config.ErrInvalidConfig, name)
		}
		out = append(out, source.NewGuard(src,
			source.WithCallTimeout(cfg.RequestTimeout()),
			source.WithGuardLogger(log.Named("source")),
		))
	}
	return out, nil
}

func buildStore(cfg *config.Config) dedupe.Store {
	if cfg.Calendar == config.CalendarDiscord {
		client := newClient(cfg, calendar.DiscordBaseURL,
			httpclient.WithHeader("Authorization", "Bot "+cfg.DiscordBotToken))
		return calendar.NewDiscord(cfg.DiscordGuildID, client)
	}
	return calendar.NewMemory()
}

func buildSink(cfg *config.Config, clock dates.Normalizer, log logger.Logger) notify.Sink {
	sinks := notify.Multi{notify.NewLog(log.Named("notify"))}
	if cfg.DiscordWebhookURL != "" {
		sinks = append(sinks, notify.NewWebhook(
			newClient(cfg, cfg.DiscordWebhookURL),
			notify.WithDateFormatter(clock),
		))
	}
	return sinks
}

func newClient(cfg *config.Config, baseURL string, opts ...httpclient.Option) *httpclient.Client {
	base := []httpclient.Option{
		httpclient.WithTimeout(cfg.RequestTimeout()),
		httpclient.WithInterval(cfg.RequestInterval()),
	}
	return httpclient.New(baseURL, append(base, opts...)...)
}
