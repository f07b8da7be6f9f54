// Package model contains domain models passed between layers.
package model

import "strings"

// Artist is one entry of a listener's top-artist chart.
type Artist struct {
	Name      string
	MBID      string // optional MusicBrainz id
	URL       string
	PlayCount int
}

// ListenerProfile is a listener's set of top artists for a period, unique by name.
type ListenerProfile struct {
	Username string
	Period   string // e.g. "7day", "1month", "overall"
	Artists  []Artist
}

// NewListenerProfile builds a profile keeping the first occurrence of each
// artist name and dropping blank names.
func NewListenerProfile(username, period string, artists []Artist) ListenerProfile {
	seen := make(map[string]struct{}, len(artists))
	unique := make([]Artist, 0, len(artists))
	for _, a := range artists {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		a.Name = name
		unique = append(unique, a)
	}
	return ListenerProfile{Username: username, Period: period, Artists: unique}
}

// ArtistNames returns the profile's artist names in chart order.
func (p ListenerProfile) ArtistNames() []string {
	names := make([]string, len(p.Artists))
	for i, a := range p.Artists {
		names[i] = a.Name
	}
	return names
}
