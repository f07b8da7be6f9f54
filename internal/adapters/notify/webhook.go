package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/gigradar/internal/adapters/httpclient"
	"github.com/okian/gigradar/internal/domain/dates"
	"github.com/okian/gigradar/internal/domain/model"
)

const (
	embedColor       = 0x1db954
	maxEmbedMatches  = 5
	maxEmbedArtists  = 3
	maxFieldValueLen = 1024
)

// Webhook posts match summaries as a Discord webhook embed.
type Webhook struct {
	client        *httpclient.Client
	dates         dates.Normalizer
	batchProgress bool
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithBatchProgress also posts a short message after each batch.
func WithBatchProgress(enabled bool) WebhookOption {
	return func(w *Webhook) { w.batchProgress = enabled }
}

// WithDateFormatter replaces the normalizer used to render event dates.
func WithDateFormatter(n dates.Normalizer) WebhookOption {
	return func(w *Webhook) {
		if n != nil {
			w.dates = n
		}
	}
}

// NewWebhook creates a Webhook whose client is rooted at the webhook URL.
func NewWebhook(client *httpclient.Client, opts ...WebhookOption) *Webhook {
	w := &Webhook{client: client, dates: dates.NewValidator()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type webhookMessage struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds,omitempty"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

// OnBatchComplete implements Sink.
func (w *Webhook) OnBatchComplete(ctx context.Context, events []model.CatalogEvent, batchIndex, totalBatches int) error {
	if !w.batchProgress {
		return nil
	}
	msg := webhookMessage{Content: fmt.Sprintf("Batch %d/%d complete: %d events found", batchIndex, totalBatches, len(events))}
	if err := w.client.PostJSON(ctx, "", msg, nil); err != nil {
		return fmt.Errorf("webhook batch %d: %w", batchIndex, err)
	}
	return nil
}

// OnMatchesReady implements Sink. Listeners without matches are skipped.
func (w *Webhook) OnMatchesReady(ctx context.Context, listener string, matches []model.MatchResult) error {
	if len(matches) == 0 {
		return nil
	}
	if err := w.client.PostJSON(ctx, "", webhookMessage{Embeds: []embed{w.buildEmbed(listener, matches)}}, nil); err != nil {
		return fmt.Errorf("webhook matches for %s: %w", listener, err)
	}
	return nil
}

func (w *Webhook) buildEmbed(listener string, matches []model.MatchResult) embed {
	e := embed{
		Title:       "Event recommendations for " + listener,
		Description: fmt.Sprintf("Found %d events matching your listening history", len(matches)),
		Color:       embedColor,
	}
	shown := matches
	if len(shown) > maxEmbedMatches {
		shown = shown[:maxEmbedMatches]
	}
	for _, m := range shown {
		e.Fields = append(e.Fields, embedField{Name: m.Event.Title, Value: w.fieldValue(m)})
	}
	if extra := len(matches) - len(shown); extra > 0 {
		e.Footer = &embedFooter{Text: fmt.Sprintf("+%d more matches", extra)}
	}
	return e
}

func (w *Webhook) fieldValue(m model.MatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Venue: %s\n", m.Event.Venue)
	fmt.Fprintf(&b, "Date: %s\n", w.dates.FormatForDisplay(m.Event.Date.Raw()))
	fmt.Fprintf(&b, "Matched: %s (%.0f%%)\n", m.Artist, m.Score*100)
	if n := len(m.Event.Performers); n > 0 {
		shown := m.Event.Performers
		if n > maxEmbedArtists {
			shown = shown[:maxEmbedArtists]
		}
		line := strings.Join(shown, ", ")
		if n > maxEmbedArtists {
			line += fmt.Sprintf(" +%d more", n-maxEmbedArtists)
		}
		fmt.Fprintf(&b, "Artists: %s\n", line)
	}
	if m.Event.URL != "" {
		fmt.Fprintf(&b, "[Tickets](%s)", m.Event.URL)
	}
	v := strings.TrimRight(b.String(), "\n")
	if r := []rune(v); len(r) > maxFieldValueLen {
		v = string(r[:maxFieldValueLen-3]) + "..."
	}
	return v
}
