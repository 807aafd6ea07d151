package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/viamover/moverd/pkg/mover"
)

var ErrQueueFull = errors.New("queue is full")

type Message struct {
	ID         string
	CreatedAt  time.Time
	RetryCount int
	Message    any
}

func NewMessage(id string, message any) Message {
	return Message{
		ID:         id,
		CreatedAt:  time.Now(),
		RetryCount: 0,
		Message:    message,
	}
}

type Processor interface {
	Process(ctx context.Context, message Message) error
}

type Service struct {
	name       string
	queue      chan Message
	quit       chan struct{}
	closeOnce  sync.Once
	maxRetries int
	retryDelay time.Duration

	ctx context.Context
	wm  mover.WebhookMessager
}

func NewService(name string, maxRetries, bufferSize int, ctx context.Context, wm mover.WebhookMessager) *Service {
	if ctx == nil {
		ctx = context.Background()
	}

	return &Service{
		name:       name,
		queue:      make(chan Message, bufferSize),
		quit:       make(chan struct{}),
		maxRetries: maxRetries,
		retryDelay: time.Second,
		ctx:        ctx,
		wm:         wm,
	}
}

// Enqueue never blocks, a full queue drops the message
func (s *Service) Enqueue(message Message) error {
	select {
	case s.queue <- message:
		return nil
	default:
		err := fmt.Errorf("%s: %w", s.name, ErrQueueFull)
		s.notify(err)
		return err
	}
}

func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
}

// Start processes messages until Close is called or the context is done
func (s *Service) Start(p Processor) error {
	for {
		select {
		case message := <-s.queue:
			// it is up to the processor to handle the data type
			err := p.Process(s.ctx, message)
			if err == nil {
				continue
			}

			if message.RetryCount < s.maxRetries {
				message.RetryCount++
				s.retry(message)
				continue
			}

			log.Error().Err(err).Str("queue", s.name).Str("id", message.ID).Int("retries", message.RetryCount).Msg("dropping message")
			s.notify(err)
		case <-s.quit:
			return nil
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	}
}

// retry requeues the message after a linear backoff without blocking the loop
func (s *Service) retry(message Message) {
	wait := time.Duration(message.RetryCount) * s.retryDelay

	time.AfterFunc(wait, func() {
		select {
		case <-s.quit:
		case s.queue <- message:
		default:
			s.notify(fmt.Errorf("%s: %w", s.name, ErrQueueFull))
		}
	})
}

func (s *Service) notify(err error) {
	if s.wm == nil {
		return
	}

	if nerr := s.wm.NotifyError(s.ctx, err); nerr != nil {
		log.Warn().Err(nerr).Str("queue", s.name).Msg("error notifying webhook")
	}
}
