package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"microsoc/pkg/models"
)

// Lookup queries an external reputation service for a source address.
type Lookup interface {
	Lookup(ctx context.Context, address string) (models.ReputationRecord, error)
}

// HTTPConfig configures the HTTP reputation client.
type HTTPConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// HTTPLookup queries a remote reputation endpoint.
type HTTPLookup struct {
	url    string
	apiKey string
	client *http.Client
}

type lookupResponse struct {
	Country    string `json:"country"`
	AbuseScore *int   `json:"abuse_score"`
}

// NewHTTPLookup creates an HTTP reputation client.
func NewHTTPLookup(cfg HTTPConfig) (*HTTPLookup, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("reputation URL is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPLookup{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Lookup fetches the reputation record for an address.
func (l *HTTPLookup) Lookup(ctx context.Context, address string) (models.ReputationRecord, error) {
	endpoint := l.url + "?address=" + url.QueryEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.ReputationRecord{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if l.apiKey != "" {
		req.Header.Set("Key", l.apiKey)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return models.ReputationRecord{}, fmt.Errorf("reputation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return models.ReputationRecord{}, fmt.Errorf("reputation request failed with status %s", resp.Status)
	}

	var body lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&body); err != nil {
		return models.ReputationRecord{}, fmt.Errorf("failed to decode reputation response: %w", err)
	}
	if body.Country == "" || body.AbuseScore == nil {
		return models.ReputationRecord{}, fmt.Errorf("reputation response missing fields")
	}

	return models.ReputationRecord{
		OriginRegion: body.Country,
		AbuseScore:   clampScore(*body.AbuseScore),
	}, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
