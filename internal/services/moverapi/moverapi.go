package moverapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/viamover/moverd/pkg/mover"
)

const (
	DefaultBaseURL    = "https://api.viamover.com/api/v1"
	DefaultAPIViewURL = "https://apiview.viamover.com/api/v1"
)

type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// envelope is the shape of every Mover API response, status is the discriminant
type envelope struct {
	Status    Status          `json:"status"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorCode string          `json:"errorCode,omitempty"`
}

type Config struct {
	BaseURL    string
	APIViewURL string
	Network    mover.Network
}

type Client struct {
	baseURL    string
	apiviewURL string
	network    mover.Network

	client *http.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIViewURL == "" {
		cfg.APIViewURL = DefaultAPIViewURL
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiviewURL: strings.TrimSuffix(cfg.APIViewURL, "/"),
		network:    cfg.Network,
		client:     &http.Client{},
	}
}

// decode unwraps the envelope into dest or into an error
func decode(statusCode int, data []byte, dest any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &mover.APIError{StatusCode: statusCode, Message: fmt.Sprintf("invalid response: %v", err)}
	}

	switch env.Status {
	case StatusOK:
		if dest == nil || len(env.Payload) == 0 {
			return nil
		}
		return json.Unmarshal(env.Payload, dest)
	case StatusError:
		return &mover.APIError{
			StatusCode:   statusCode,
			ShortMessage: env.ErrorCode,
			Message:      env.Error,
		}
	default:
		return &mover.ValidationError{
			Message: fmt.Sprintf("unexpected response status %q", env.Status),
			Payload: json.RawMessage(data),
		}
	}
}

func (c *Client) do(ctx context.Context, method, url string, body, dest any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return decode(resp.StatusCode, data, dest)
}

func (c *Client) chainID(n mover.Network) (int64, error) {
	info, ok := mover.GetNetwork(n)
	if !ok {
		return 0, fmt.Errorf("failed to get chainId of network %s", n)
	}
	return info.ChainID.Int64(), nil
}
