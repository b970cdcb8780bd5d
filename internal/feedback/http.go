package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPRelay talks to the feedback subsystem over its JSON API.
type HTTPRelay struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRelay(baseURL string) *HTTPRelay {
	return &HTTPRelay{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *HTTPRelay) Record(ctx context.Context, interaction Interaction) error {
	body, err := json.Marshal(interaction)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/interactions", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("post interaction: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("feedback service returned %s", resp.Status)
	}
	return nil
}

func (r *HTTPRelay) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := r.getJSON(ctx, "/stats", &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (r *HTTPRelay) Suggestions(ctx context.Context) ([]string, error) {
	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := r.getJSON(ctx, "/suggestions", &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

func (r *HTTPRelay) Train(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/train", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("trigger training: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("feedback service returned %s", resp.Status)
	}
	return nil
}

func (r *HTTPRelay) getJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("feedback service returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
