// Package radar implements the pull client for the RADAR change feeds.
// RADAR exposes one cursor-paged endpoint per record type; the client maps
// transport and protocol failures into the platform error taxonomy so the
// sync service can decide what to retry.
package radar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/sync"
)

const defaultTimeout = 30 * time.Second

// Config configures the RADAR client.
type Config struct {
	// BaseURL of the RADAR API, without trailing slash.
	BaseURL string

	// Token is the bearer token for the feed endpoints.
	Token string

	// Timeout per request (default 30s).
	Timeout time.Duration
}

// Client pulls change pages from RADAR. Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a RADAR client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// feedEnvelope is the wire shape of one feed page. Every record comes with
// the feed position token directly after it, so a consumer can checkpoint
// mid-page.
type feedEnvelope struct {
	Records []struct {
		Cursor string          `json:"cursor"`
		Record json.RawMessage `json:"record"`
	} `json:"records"`
	NextCursor string `json:"nextCursor"`
	HasMore    bool   `json:"hasMore"`
}

// FetchVoyages pulls one page of voyage changes after the cursor.
func (c *Client) FetchVoyages(ctx context.Context, cursor string, limit int) (*sync.VoyagePage, error) {
	env, err := c.fetch(ctx, "/api/v1/feed/voyages", cursor, limit)
	if err != nil {
		return nil, err
	}

	page := &sync.VoyagePage{NextCursor: env.NextCursor, HasMore: env.HasMore}
	for _, item := range env.Records {
		var rec sync.ExternalVoyage
		if err := json.Unmarshal(item.Record, &rec); err != nil {
			return nil, apperror.NewValidation("malformed voyage record in feed").
				WithDetail("cursor", item.Cursor).
				WithCause(err)
		}
		rec.Cursor = item.Cursor
		rec.Raw = item.Record
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

// FetchClaims pulls one page of claim changes after the cursor.
func (c *Client) FetchClaims(ctx context.Context, cursor string, limit int) (*sync.ClaimPage, error) {
	env, err := c.fetch(ctx, "/api/v1/feed/claims", cursor, limit)
	if err != nil {
		return nil, err
	}

	page := &sync.ClaimPage{NextCursor: env.NextCursor, HasMore: env.HasMore}
	for _, item := range env.Records {
		var rec sync.ExternalClaim
		if err := json.Unmarshal(item.Record, &rec); err != nil {
			return nil, apperror.NewValidation("malformed claim record in feed").
				WithDetail("cursor", item.Cursor).
				WithCause(err)
		}
		rec.Cursor = item.Cursor
		rec.Raw = item.Record
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

func (c *Client) fetch(ctx context.Context, path, cursor string, limit int) (*feedEnvelope, error) {
	q := url.Values{}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	reqURL := c.cfg.BaseURL + path
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, mapStatusError(resp)
	}

	var env feedEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, apperror.NewValidation("malformed feed response").WithCause(err)
	}
	return &env, nil
}

func mapTransportError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return apperror.NewTimeout("radar feed request timed out", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewTimeout("radar feed request timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperror.NewConnectivity("radar feed unreachable", err)
}

func mapStatusError(resp *http.Response) error {
	// Read a bounded slice of the body for the error detail.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperror.NewUnauthorized("radar feed rejected credentials").
			WithDetail("status", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperror.NewConnectivity("radar feed throttled", nil).
			WithDetail("status", resp.StatusCode)
	case resp.StatusCode >= 500:
		return apperror.NewConnectivity("radar feed unavailable", nil).
			WithDetail("status", resp.StatusCode).
			WithDetail("body", string(body))
	default:
		return apperror.NewValidation("radar feed rejected request").
			WithDetail("status", resp.StatusCode).
			WithDetail("body", string(body))
	}
}
