package retry

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Timeout:        time.Second,
	}
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func TestDoSucceedsFirstTry(t *testing.T) {
	got, err := Do(context.Background(), discard(), fastConfig(), "fetch",
		func(context.Context) (int, error) { return 42, nil })
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	attempts := 0
	got, err := Do(context.Background(), discard(), fastConfig(), "fetch",
		func(context.Context) (string, error) {
			attempts++
			if attempts < 3 {
				return "", errors.New("connection refused")
			}
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != "ok" || attempts != 3 {
		t.Errorf("got %q after %d attempts, want ok after 3", got, attempts)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	attempts := 0
	_, err := Do(context.Background(), discard(), fastConfig(), "fetch",
		func(context.Context) (int, error) {
			attempts++
			return 0, errors.New("invalid symbol")
		})
	if err == nil {
		t.Fatal("expected an error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 for a non-transient error", attempts)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	attempts := 0
	_, err := Do(context.Background(), discard(), fastConfig(), "fetch",
		func(context.Context) (int, error) {
			attempts++
			return 0, errors.New("rate limit")
		})
	if err == nil {
		t.Fatal("expected an error")
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want MaxRetries+1 = 4", attempts)
	}
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Do(ctx, discard(), fastConfig(), "fetch",
		func(context.Context) (int, error) { return 0, errors.New("timeout") })
	if err == nil {
		t.Fatal("expected a cancellation error")
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error is not transient")
	}
	if !IsTransient(errors.New("HTTP 503 Service Unavailable")) {
		t.Error("503 should be transient")
	}
	if IsTransient(errors.New("strike not listed")) {
		t.Error("domain errors are not transient")
	}
}
