package reporter

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
	"github.com/viamover/moverd/pkg/mover"
)

const notifyTimeout = 10 * time.Second

// Reporter forwards captured errors to sentry and the ops webhook
type Reporter struct {
	hub      *sentry.Hub
	messager mover.WebhookMessager
}

// New uses the current sentry hub when hub is nil. Both hub and messager may be disabled.
func New(hub *sentry.Hub, messager mover.WebhookMessager) *Reporter {
	if hub == nil {
		hub = sentry.CurrentHub()
	}

	return &Reporter{
		hub:      hub,
		messager: messager,
	}
}

func (r *Reporter) CaptureException(err error) {
	if err == nil {
		return
	}

	log.Error().Err(err).Msg("captured exception")

	r.hub.CaptureException(err)

	// caller mistakes are not worth paging anyone
	if r.messager == nil || mover.IsUserError(err) {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if nerr := r.messager.NotifyError(ctx, err); nerr != nil {
			log.Warn().Err(nerr).Msg("error notifying webhook")
		}
	}()
}

func (r *Reporter) AddBreadcrumb(category, message string) {
	log.Debug().Str("category", category).Msg(message)

	r.hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}, nil)
}

// Flush waits for buffered events to be sent
func (r *Reporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
