package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/viamover/moverd/pkg/mover"
)

type Message struct {
	Content string `json:"content"`
}

type Messager struct {
	BaseURL string
	Name    string

	client *http.Client
	notify bool
}

func NewMessager(baseURL, name string, notify bool) mover.WebhookMessager {
	return &Messager{
		BaseURL: baseURL,
		Name:    name,
		client:  http.DefaultClient,
		notify:  notify && baseURL != "",
	}
}

func (b *Messager) post(ctx context.Context, content string) error {
	if !b.notify {
		return nil
	}

	data, err := json.Marshal(Message{Content: content})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL, bytes.NewReader(data))
	if err != nil {
		return err
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	// discord answers 204
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("error sending message: status %d", resp.StatusCode)
	}

	return nil
}

func (b *Messager) Notify(ctx context.Context, message string) error {
	return b.post(ctx, fmt.Sprintf("[%s] %s", b.Name, message))
}

func (b *Messager) NotifyWarning(ctx context.Context, errorMessage error) error {
	return b.post(ctx, fmt.Sprintf("[%s] warning: %s", b.Name, errorMessage.Error()))
}

func (b *Messager) NotifyError(ctx context.Context, errorMessage error) error {
	return b.post(ctx, fmt.Sprintf("[%s] error: %s", b.Name, errorMessage.Error()))
}
