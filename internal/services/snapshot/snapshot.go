package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/viamover/moverd/pkg/mover"
	"golang.org/x/time/rate"
)

const (
	DefaultHubURL   = "https://hub.snapshot.org"
	DefaultScoreURL = "https://score.snapshot.org"

	// snapshot caps list queries at 1000 items
	pageSize = 1000
	appName  = "mover"
)

// Error is an error response of the hub or the score api
type Error struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("snapshot: %s: %s (status %d)", e.Code, e.Description, e.StatusCode)
}

type Config struct {
	HubURL    string
	ScoreURL  string
	RateLimit float64 // requests per second, 0 disables limiting
}

// Client talks to the snapshot hub, score and message apis
type Client struct {
	hubURL   string
	scoreURL string

	client  *http.Client
	limiter *rate.Limiter
	clock   mover.Clock
}

func New(cfg Config, clock mover.Clock) *Client {
	if cfg.HubURL == "" {
		cfg.HubURL = DefaultHubURL
	}
	if cfg.ScoreURL == "" {
		cfg.ScoreURL = DefaultScoreURL
	}
	if clock == nil {
		clock = mover.SystemClock
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		hubURL:   strings.TrimSuffix(cfg.HubURL, "/"),
		scoreURL: strings.TrimSuffix(cfg.ScoreURL, "/"),
		client:   &http.Client{},
		limiter:  limiter,
		clock:    clock,
	}
}

// post sends body as json to url and decodes the response into dest
func (c *Client) post(ctx context.Context, url string, body, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		serr := &Error{StatusCode: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}

		var body struct {
			Error            string `json:"error"`
			ErrorDescription any    `json:"error_description"`
		}
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			serr.Code = body.Error
			serr.Description = fmt.Sprint(body.ErrorDescription)
		}

		return serr
	}

	return json.Unmarshal(data, dest)
}
