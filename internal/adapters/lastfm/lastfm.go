// Package lastfm loads listener profiles from the Last.fm API.
package lastfm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/okian/gigradar/internal/adapters/httpclient"
	"github.com/okian/gigradar/internal/domain/model"
	"github.com/okian/gigradar/pkg/logger"
)

// BaseURL is the Last.fm API root.
const BaseURL = "https://ws.audioscrobbler.com/2.0"

// ErrAPI is returned when Last.fm answers with an error document.
var ErrAPI = errors.New("lastfm api error")

// Client reads user charts.
type Client struct {
	apiKey string
	http   *httpclient.Client
	log    logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for per-user failures.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Client.
func New(apiKey string, http *httpclient.Client, opts ...Option) *Client {
	c := &Client{apiKey: apiKey, http: http, log: logger.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type topArtistsResponse struct {
	Error      int    `json:"error"`
	Message    string `json:"message"`
	TopArtists struct {
		Artist []struct {
			Name      string `json:"name"`
			MBID      string `json:"mbid"`
			URL       string `json:"url"`
			PlayCount string `json:"playcount"`
		} `json:"artist"`
	} `json:"topartists"`
}

// TopArtists returns the user's most played artists for period.
func (c *Client) TopArtists(ctx context.Context, username, period string, limit int) ([]model.Artist, error) {
	params := url.Values{
		"method":  {"user.gettopartists"},
		"user":    {username},
		"period":  {period},
		"limit":   {strconv.Itoa(limit)},
		"api_key": {c.apiKey},
		"format":  {"json"},
	}
	var resp topArtistsResponse
	if err := c.http.GetJSON(ctx, "/", params, &resp); err != nil {
		return nil, fmt.Errorf("top artists for %s: %w", username, err)
	}
	if resp.Error != 0 {
		return nil, fmt.Errorf("%w %d: %s", ErrAPI, resp.Error, resp.Message)
	}

	artists := make([]model.Artist, 0, len(resp.TopArtists.Artist))
	for _, a := range resp.TopArtists.Artist {
		plays, _ := strconv.Atoi(a.PlayCount)
		artists = append(artists, model.Artist{Name: a.Name, MBID: a.MBID, URL: a.URL, PlayCount: plays})
	}
	return artists, nil
}

// LoadProfiles builds a profile per username. Users that fail to load are
// logged and left out.
func (c *Client) LoadProfiles(ctx context.Context, usernames []string, period string, limit int) []model.ListenerProfile {
	profiles := make([]model.ListenerProfile, 0, len(usernames))
	for _, u := range usernames {
		if err := ctx.Err(); err != nil {
			return profiles
		}
		artists, err := c.TopArtists(ctx, u, period, limit)
		if err != nil {
			c.log.Warn(ctx, "failed to load listener profile", logger.String("user", u), logger.Error(err))
			continue
		}
		profiles = append(profiles, model.NewListenerProfile(u, period, artists))
		c.log.Info(ctx, "loaded listener profile", logger.String("user", u), logger.Int("artists", len(artists)))
	}
	return profiles
}
