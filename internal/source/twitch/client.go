// Package twitch implements domain.ChannelSource against the Twitch
// follows and streams endpoints.
package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mmcdole/favlive/internal/domain"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "favlive/1.0"
	acceptHeader   = "application/vnd.twitchtv.v5+json"
)

// Client implements domain.ChannelSource for Twitch
type Client struct {
	baseURL    string
	clientID   string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Twitch API client. A zero timeout uses the default.
func NewClient(baseURL, clientID, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		token:    token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// doRequest performs an authenticated GET and returns the body of a 200 response
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if c.clientID != "" {
		req.Header.Set("Client-ID", c.clientID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "OAuth "+c.token)
	}

	c.logger.Debug("twitch request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.Warn("twitch request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrTransport, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domain.ErrAuthFailed
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, path)
	default:
		c.logger.Error("twitch request error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: unexpected status code: %d", domain.ErrTransport, resp.StatusCode)
	}
}

// decode parses a JSON body, classifying failures as domain.ErrDecode
func (c *Client) decode(body []byte, dest any) error {
	if err := json.Unmarshal(body, dest); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return nil
}

// FetchPage returns the channels followed by user, offset/limit paginated
func (c *Client) FetchPage(ctx context.Context, user string, offset, limit int) (domain.Page, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("direction", "desc")
	query.Set("sortby", "created_at")

	body, err := c.doRequest(ctx, "/users/"+url.PathEscape(user)+"/follows/channels", query)
	if err != nil {
		return domain.Page{}, err
	}

	var resp FollowsResponse
	if err := c.decode(body, &resp); err != nil {
		return domain.Page{}, err
	}
	if resp.Total == nil {
		return domain.Page{}, fmt.Errorf("%w: follows response has no _total", domain.ErrDecode)
	}

	page := domain.Page{
		Channels: make([]domain.Channel, 0, len(resp.Follows)),
		Total:    *resp.Total,
	}
	for i, f := range resp.Follows {
		if f.Channel == nil || f.Channel.ID == "" || f.Channel.Name == "" {
			return domain.Page{}, fmt.Errorf("%w: follow %d has no channel identity", domain.ErrDecode, offset+i)
		}
		page.Channels = append(page.Channels, mapChannel(f.Channel))
	}
	return page, nil
}

// FetchStatus reports whether the named channel is live
func (c *Client) FetchStatus(ctx context.Context, name string) (domain.Status, error) {
	body, err := c.doRequest(ctx, "/streams/"+url.PathEscape(name), nil)
	if err != nil {
		return domain.StatusUnknown, err
	}

	var resp StreamResponse
	if err := c.decode(body, &resp); err != nil {
		return domain.StatusUnknown, err
	}
	return mapStatus(&resp), nil
}
