package spotify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/eleven-am/panther/internal/xjson"
)

// TokenSource hands out the current access token. An error means no token is available
// right now and the request goes out unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Config struct {
	BaseURL     string
	Timeout     time.Duration
	SkipRelated bool
}

// Fetcher reads artist data from the Spotify Web API.
type Fetcher struct {
	baseURL     string
	skipRelated bool
	client      *http.Client
	tokens      TokenSource
	logger      *slog.Logger
}

type image struct {
	URL string `json:"url"`
}

type artistResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Followers  struct {
		Total int `json:"total"`
	} `json:"followers"`
	Images       []image `json:"images"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type relatedResponse struct {
	Artists []artistResponse `json:"artists"`
}

func firstImage(images []image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func NewFetcher(config Config, client *http.Client, tokens TokenSource, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.BaseURL == "" {
		config.BaseURL = domain.DefaultSpotifyBaseURL
	}

	return &Fetcher{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		skipRelated: config.SkipRelated,
		client:      client,
		tokens:      tokens,
		logger:      logger.With("component", "spotify"),
	}
}

func (f *Fetcher) FetchArtist(ctx context.Context, id string) (*domain.ArtistData, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationError("artist", "id cannot be empty")
	}

	token := f.token(ctx)
	escaped := url.PathEscape(id)

	var artist artistResponse
	if err := f.get(ctx, "/v1/artists/"+escaped, token, &artist); err != nil {
		return nil, err
	}

	data := &domain.ArtistData{
		ID:         artist.ID,
		Name:       artist.Name,
		Genres:     artist.Genres,
		Popularity: artist.Popularity,
		Followers:  artist.Followers.Total,
		ImageURL:   firstImage(artist.Images),
		SpotifyURL: artist.ExternalURLs.Spotify,
	}
	if data.ID == "" {
		data.ID = id
	}

	if f.skipRelated {
		return data, nil
	}

	var related relatedResponse
	if err := f.get(ctx, "/v1/artists/"+escaped+"/related-artists", token, &related); err != nil {
		f.logger.Warn("related artists unavailable", "artist", id, "error", err)
		return data, nil
	}

	data.Related = make([]domain.ArtistSummary, 0, len(related.Artists))
	for _, r := range related.Artists {
		data.Related = append(data.Related, domain.ArtistSummary{
			ID:         r.ID,
			Name:       r.Name,
			ImageURL:   firstImage(r.Images),
			Popularity: r.Popularity,
		})
	}
	return data, nil
}

func (f *Fetcher) token(ctx context.Context) string {
	if f.tokens == nil {
		return ""
	}

	token, err := f.tokens.Token(ctx)
	if err != nil {
		f.logger.Debug("continuing without access token", "reason", err)
		return ""
	}
	return token
}

func (f *Fetcher) get(ctx context.Context, path, token string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return domain.NewComponentError("spotify", "build-request", err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.NewComponentError("spotify", "request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.NewComponentError("spotify", "request", domain.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.NewComponentError("spotify", "request",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if err := xjson.Decode(resp.Body, out); err != nil {
		return domain.NewComponentError("spotify", "decode", err)
	}
	return nil
}
