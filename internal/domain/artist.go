package domain

type ArtistSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ImageURL   string `json:"image_url,omitempty"`
	Popularity int    `json:"popularity"`
}

// ArtistData is what the artist panel shows once a selection has been revealed.
type ArtistData struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Genres     []string        `json:"genres,omitempty"`
	Popularity int             `json:"popularity"`
	Followers  int             `json:"followers"`
	ImageURL   string          `json:"image_url,omitempty"`
	SpotifyURL string          `json:"spotify_url,omitempty"`
	Related    []ArtistSummary `json:"related,omitempty"`
}

func (a *ArtistData) Node() NodeRef {
	return NodeRef{ID: a.ID, Name: a.Name}
}
