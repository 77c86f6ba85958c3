package tokenprovider

import (
	"context"
	"net/http"

	"github.com/eleven-am/panther/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentials exchanges a client id and secret for an app access token using the
// OAuth2 client-credentials grant.
type ClientCredentials struct {
	config *clientcredentials.Config
	client *http.Client
}

func NewClientCredentials(clientID, clientSecret, tokenURL string, client *http.Client) *ClientCredentials {
	if tokenURL == "" {
		tokenURL = domain.DefaultSpotifyTokenURL
	}
	return &ClientCredentials{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		client: client,
	}
}

func (c *ClientCredentials) FetchAccessToken(ctx context.Context) (string, error) {
	if c.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	}

	token, err := c.config.Token(ctx)
	if err != nil {
		return "", domain.NewComponentError("client-credentials", "exchange", err)
	}
	if token.AccessToken == "" {
		return "", domain.NewComponentError("client-credentials", "exchange", domain.ErrTokenUnavailable)
	}
	return token.AccessToken, nil
}
