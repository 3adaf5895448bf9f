// Package bicycle fetches rental station status from the public bicycle API.
package bicycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var ErrNotConfigured = errors.New("bicycle api url not configured")

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Stations returns the rentBikeStatus.row array for stations start..end as raw JSON.
func (c *Client) Stations(ctx context.Context, start, end int) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	url := fmt.Sprintf("%s/%d/%d/", strings.TrimRight(c.baseURL, "/"), start, end)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bicycle api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("bicycle api: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bicycle api: status %d", resp.StatusCode)
	}
	rows := gjson.GetBytes(body, "rentBikeStatus.row")
	if !rows.Exists() {
		// the API reports errors in-band under RESULT
		if msg := gjson.GetBytes(body, "RESULT.MESSAGE").String(); msg != "" {
			return nil, fmt.Errorf("bicycle api: %s", msg)
		}
		return nil, errors.New("bicycle api: missing rentBikeStatus.row")
	}
	return json.RawMessage(rows.Raw), nil
}
