package tokenprovider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/eleven-am/panther/internal/domain"
	"github.com/eleven-am/panther/internal/xjson"
)

// Proxy asks our own back-end for a Spotify access token, keeping client secrets off the
// client.
type Proxy struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

type proxyResponse struct {
	AccessToken string `json:"access_token"`
	CamelToken  string `json:"accessToken"`
	Token       string `json:"token"`
}

func (r proxyResponse) value() string {
	switch {
	case r.AccessToken != "":
		return r.AccessToken
	case r.CamelToken != "":
		return r.CamelToken
	default:
		return r.Token
	}
}

func NewProxy(url string, client *http.Client, logger *slog.Logger) *Proxy {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Proxy{
		url:    url,
		client: client,
		logger: logger.With("component", "token-proxy"),
	}
}

func (p *Proxy) FetchAccessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return "", domain.NewComponentError("token-proxy", "build-request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", domain.NewComponentError("token-proxy", "request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", domain.NewComponentError("token-proxy", "request",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var payload proxyResponse
	if err := xjson.Decode(resp.Body, &payload); err != nil {
		return "", domain.NewComponentError("token-proxy", "decode", err)
	}

	token := payload.value()
	if token == "" {
		return "", domain.NewComponentError("token-proxy", "decode", domain.ErrTokenUnavailable)
	}

	p.logger.Debug("access token received from proxy")
	return token, nil
}
