// Package nightscout reads glucose entries from and posts meal treatments to a Nightscout site
package nightscout

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // Required for Nightscout API secret hashing (legacy API requirement)
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mrcode/glucopredict/internal/models"
)

// ErrNoEntries is returned when the site has no glucose entries
var ErrNoEntries = errors.New("no entries returned")

// Client handles communication with the Nightscout API
type Client struct {
	baseURL    string
	apiSecret  string
	apiToken   string
	useToken   bool
	httpClient *http.Client
}

// NewClient creates a new Nightscout client
func NewClient(baseURL, apiSecret, apiToken string, useToken bool) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiSecret: apiSecret,
		apiToken:  apiToken,
		useToken:  useToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClientFromSettings creates a client for the configured site, or nil when none is set
func NewClientFromSettings(s *models.Settings) *Client {
	if !s.IsNightscoutConfigured() {
		return nil
	}
	c := s.Clone()
	return NewClient(c.NightscoutURL, c.APISecret, c.APIToken, c.UseToken)
}

// hashSecret generates SHA1 hash of the API secret
// Note: SHA1 is required for Nightscout API compatibility
func hashSecret(secret string) string {
	hasher := sha1.New() //nolint:gosec // Required for Nightscout API
	hasher.Write([]byte(secret))
	return hex.EncodeToString(hasher.Sum(nil))
}

// do sends a request and decodes a 2xx JSON response into out when out is not nil
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, payload, out any) error {
	fullURL := c.baseURL + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	// Add authentication
	if c.useToken && c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	} else if c.apiSecret != "" {
		req.Header.Set("API-SECRET", hashSecret(c.apiSecret))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(data))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// GetStatus retrieves the Nightscout server status
func (c *Client) GetStatus(ctx context.Context) (*models.ServerStatus, error) {
	var status models.ServerStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// TestConnection tests if the connection to Nightscout works
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.GetStatus(ctx)
	return err
}

// GetCurrentEntry retrieves the most recent glucose entry
func (c *Client) GetCurrentEntry(ctx context.Context) (*models.GlucoseEntry, error) {
	params := url.Values{}
	params.Set("count", "1")

	// The current endpoint returns a single object or an array depending on the server version
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/entries/current", params, nil, &raw); err != nil {
		return nil, err
	}

	var entries []models.GlucoseEntry
	if err := json.Unmarshal(raw, &entries); err == nil {
		if len(entries) == 0 {
			return nil, ErrNoEntries
		}
		return &entries[0], nil
	}

	var entry models.GlucoseEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("parsing entry: %w", err)
	}
	return &entry, nil
}

// GetEntries retrieves glucose entries for a time range. Zero times leave that side open.
func (c *Client) GetEntries(ctx context.Context, from, to time.Time, count int) ([]models.GlucoseEntry, error) {
	params := url.Values{}

	if !from.IsZero() {
		params.Set("find[date][$gte]", strconv.FormatInt(from.UnixMilli(), 10))
	}
	if !to.IsZero() {
		params.Set("find[date][$lte]", strconv.FormatInt(to.UnixMilli(), 10))
	}
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}

	var entries []models.GlucoseEntry
	if err := c.do(ctx, http.MethodGet, "/api/v1/entries/sgv", params, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetReadingsSince returns entries since from as history readings, oldest first
func (c *Client) GetReadingsSince(ctx context.Context, from time.Time) ([]models.GlucoseReading, error) {
	entries, err := c.GetEntries(ctx, from, time.Time{}, 0)
	if err != nil {
		return nil, err
	}

	readings := make([]models.GlucoseReading, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		readings = append(readings, entries[i].Reading())
	}
	return readings, nil
}

// PostTreatment uploads a treatment such as a meal bolus or carb correction
func (c *Client) PostTreatment(ctx context.Context, t *models.Treatment) error {
	if err := c.do(ctx, http.MethodPost, "/api/v1/treatments", nil, []*models.Treatment{t}, nil); err != nil {
		return fmt.Errorf("posting treatment: %w", err)
	}
	return nil
}

// GetTreatments retrieves treatments created in the last hours
func (c *Client) GetTreatments(ctx context.Context, hours int) ([]models.Treatment, error) {
	params := url.Values{}
	from := time.Now().Add(-time.Duration(hours) * time.Hour)
	params.Set("find[created_at][$gte]", from.UTC().Format(time.RFC3339))

	var treatments []models.Treatment
	if err := c.do(ctx, http.MethodGet, "/api/v1/treatments", params, nil, &treatments); err != nil {
		return nil, err
	}
	return treatments, nil
}
