package calendar

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/gigradar/internal/adapters/httpclient"
	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/pkg/metrics"
)

// DiscordBaseURL is the REST API root.
const DiscordBaseURL = "https://discord.com/api/v10"

const (
	privacyGuildOnly   = 2
	entityTypeExternal = 3
)

// Discord stores entries as guild scheduled events. Snowflake IDs increase
// with creation time, so they order entries the way cleanup expects.
type Discord struct {
	guildID string
	client  *httpclient.Client
}

// NewDiscord creates a Discord store. client must carry the bot
// Authorization header.
func NewDiscord(guildID string, client *httpclient.Client) *Discord {
	return &Discord{guildID: guildID, client: client}
}

type discordEvent struct {
	ID                 string           `json:"id,omitempty"`
	Name               string           `json:"name"`
	Description        string           `json:"description,omitempty"`
	ScheduledStartTime string           `json:"scheduled_start_time"`
	ScheduledEndTime   string           `json:"scheduled_end_time,omitempty"`
	PrivacyLevel       int              `json:"privacy_level,omitempty"`
	EntityType         int              `json:"entity_type,omitempty"`
	EntityMetadata     *discordMetadata `json:"entity_metadata,omitempty"`
}

type discordMetadata struct {
	Location string `json:"location,omitempty"`
}

func (d *Discord) path() string {
	return "/guilds/" + d.guildID + "/scheduled-events"
}

// ListScheduled returns the guild's scheduled events.
func (d *Discord) ListScheduled(ctx context.Context) ([]model.ScheduledEntry, error) {
	var raw []discordEvent
	if err := d.client.GetJSON(ctx, d.path(), nil, &raw); err != nil {
		return nil, fmt.Errorf("list guild events: %w", err)
	}
	entries := make([]model.ScheduledEntry, 0, len(raw))
	for i := range raw {
		e, err := fromDiscord(&raw[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	metrics.UpdateScheduledEntries(len(entries))
	return entries, nil
}

// Create posts a guild-only external event.
func (d *Discord) Create(ctx context.Context, draft model.EntryDraft) (model.ScheduledEntry, error) {
	body := discordEvent{
		Name:               draft.Name,
		Description:        draft.Description,
		ScheduledStartTime: draft.Start.UTC().Format(time.RFC3339),
		ScheduledEndTime:   draft.End.UTC().Format(time.RFC3339),
		PrivacyLevel:       privacyGuildOnly,
		EntityType:         entityTypeExternal,
		EntityMetadata:     &discordMetadata{Location: draft.Location},
	}

	var created discordEvent
	if err := d.client.PostJSON(ctx, d.path(), body, &created); err != nil {
		return model.ScheduledEntry{}, fmt.Errorf("create guild event: %w", err)
	}
	return fromDiscord(&created)
}

// Delete removes the guild event with entry's ID.
func (d *Discord) Delete(ctx context.Context, entry model.ScheduledEntry) error {
	if err := d.client.Delete(ctx, d.path()+"/"+strconv.FormatUint(entry.ID, 10)); err != nil {
		return fmt.Errorf("delete guild event %d: %w", entry.ID, err)
	}
	return nil
}

func fromDiscord(e *discordEvent) (model.ScheduledEntry, error) {
	id, err := strconv.ParseUint(e.ID, 10, 64)
	if err != nil {
		return model.ScheduledEntry{}, fmt.Errorf("guild event id %q: %w", e.ID, err)
	}
	start, err := time.Parse(time.RFC3339, e.ScheduledStartTime)
	if err != nil {
		return model.ScheduledEntry{}, fmt.Errorf("guild event %s start: %w", e.ID, err)
	}
	entry := model.ScheduledEntry{
		ID:          id,
		Name:        e.Name,
		Description: e.Description,
		Start:       start,
	}
	if e.ScheduledEndTime != "" {
		if end, err := time.Parse(time.RFC3339, e.ScheduledEndTime); err == nil {
			entry.End = end
		}
	}
	if e.EntityMetadata != nil {
		entry.Location = e.EntityMetadata.Location
	}
	return entry, nil
}
