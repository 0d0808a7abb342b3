package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Sink delivers a formatted report to a human.
type Sink interface {
	Send(ctx context.Context, title, text string) error
	Name() string
}

// SendWithRetry sends through s with exponential backoff starting at base.
func SendWithRetry(ctx context.Context, s Sink, title, text string, maxRetries int, base time.Duration) error {
	if base <= 0 {
		base = time.Second
	}
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := s.Send(ctx, title, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := base * time.Duration(1<<uint(i))
		log.Printf("[WARN] %s send failed (attempt %d/%d): %v, retrying in %v", s.Name(), i+1, maxRetries+1, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("%s: all %d attempts failed: %w", s.Name(), maxRetries+1, lastErr)
}

// MultiSink fans a message out to every configured sink.
type MultiSink []Sink

func (m MultiSink) Name() string { return "multi" }

// Send delivers to all sinks and joins their errors. One failing sink does not
// prevent delivery to the others.
func (m MultiSink) Send(ctx context.Context, title, text string) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, title, text); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// LogSink writes messages to the log. Used when no remote sink is configured.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Send(_ context.Context, title, text string) error {
	log.Printf("[INFO] %s\n%s", title, text)
	return nil
}
