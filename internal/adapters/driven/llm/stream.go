// Package llm holds helpers shared by the generation adapters.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Default timeouts for streamed generation.
const (
	DefaultHeaderTimeout = 60 * time.Second
	DefaultIdleTimeout   = 60 * time.Second
)

// NewStreamClient returns a client for long-lived streamed responses. It has
// no overall timeout; the wait for response headers is bounded instead.
func NewStreamClient(headerTimeout time.Duration) *http.Client {
	if headerTimeout <= 0 {
		headerTimeout = DefaultHeaderTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: transport}
}

// IdleReader cancels a request when a single read blocks longer than the
// idle timeout. Time spent between reads is not counted.
type IdleReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
	expired atomic.Bool
}

// NewIdleReader wraps r. cancel must abort the request that r belongs to.
func NewIdleReader(r io.Reader, timeout time.Duration, cancel context.CancelFunc) *IdleReader {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	ir := &IdleReader{r: r, timeout: timeout}
	ir.timer = time.AfterFunc(timeout, func() {
		ir.expired.Store(true)
		cancel()
	})
	ir.timer.Stop()
	return ir
}

// Read reads from the wrapped reader under the idle deadline.
func (ir *IdleReader) Read(p []byte) (int, error) {
	ir.timer.Reset(ir.timeout)
	n, err := ir.r.Read(p)
	ir.timer.Stop()
	return n, err
}

// Expired reports whether the idle deadline has fired.
func (ir *IdleReader) Expired() bool {
	return ir.expired.Load()
}

// Timeout returns the idle timeout.
func (ir *IdleReader) Timeout() time.Duration {
	return ir.timeout
}

// Stop disarms the timer.
func (ir *IdleReader) Stop() {
	ir.timer.Stop()
}

// TransportError maps a failed request to a domain error. A caller
// cancellation is returned unchanged; everything else, timeouts included,
// means the service is unavailable.
func TransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		return ctxErr
	}
	return fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
}

// StatusError reports a non-200 response as a generation failure with the body attached.
func StatusError(provider string, status int, body []byte) error {
	return fmt.Errorf("%w: %s returned status %d: %s", domain.ErrGenerationFailed, provider, status, string(body))
}

// StreamReadError maps a failure while reading a streamed body.
func StreamReadError(ctx context.Context, ir *IdleReader, err error) error {
	if ir.Expired() {
		return fmt.Errorf("%w: no data for %s", domain.ErrGenerationUnavailable, ir.Timeout())
	}
	return TransportError(ctx, fmt.Errorf("read stream: %w", err))
}
