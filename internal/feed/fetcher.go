// Package feed fetches the album chart JSON feed and decodes it, delivering
// every outcome to a completion handler on a caller-chosen Executor.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxItems is the item-count hint used when the caller has none.
const DefaultMaxItems = 100

type Fetcher struct {
	transport Transport
	callbacks Executor
	logger    *zap.Logger
}

type Option func(*Fetcher)

func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New returns a Fetcher that issues requests through transport and posts
// completions onto callbacks. A nil transport uses an HTTPTransport over
// http.DefaultClient; a nil callbacks runs completions immediately.
func New(transport Transport, callbacks Executor, opts ...Option) *Fetcher {
	if callbacks == nil {
		callbacks = Immediate
	}
	f := &Fetcher{
		transport: transport,
		callbacks: callbacks,
		logger:    zap.NewNop(),
	}
	for _, o := range opts {
		o(f)
	}
	if f.transport == nil {
		f.transport = NewHTTPTransport(nil, f.logger)
	}
	return f
}

// GetFeed fetches and decodes the feed at rawURL without blocking the caller.
// onComplete is invoked exactly once, on the Fetcher's Executor. A nil
// onComplete discards the result.
//
// maxItems is advisory: the server is trusted to limit the chart, and the
// decoded results are never truncated.
func (f *Fetcher) GetFeed(ctx context.Context, maxItems int, rawURL string, onComplete func(Result[Feed])) {
	if onComplete == nil {
		onComplete = func(Result[Feed]) {}
	}
	f.Fetch(ctx, maxItems, rawURL).Then(f.callbacks, onComplete)
}

// Fetch starts the request and returns its pending result.
func (f *Fetcher) Fetch(ctx context.Context, maxItems int, rawURL string) *Task[Feed] {
	task := newTask[Feed]()
	log := f.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("url", rawURL),
		zap.Int("max_items", maxItems),
	)

	req, apiErr := buildRequest(ctx, rawURL)
	if apiErr != nil {
		log.Warn("rejecting feed request", zap.Error(apiErr))
		task.fail(apiErr)
		return task
	}

	go func() {
		log.Debug("fetching feed")

		data, apiErr := f.perform(req, log)
		if apiErr != nil {
			log.Warn("feed request failed", zap.Stringer("kind", apiErr.Kind), zap.Error(apiErr))
			task.fail(apiErr)
			return
		}

		feed, apiErr := decodeFeed(data)
		if apiErr != nil {
			log.Warn("decoding feed failed", zap.Stringer("kind", apiErr.Kind), zap.Error(apiErr))
			task.fail(apiErr)
			return
		}

		log.Info("fetched feed", zap.Int("results", len(feed.Results)))
		task.succeed(feed)
	}()

	return task
}

func buildRequest(ctx context.Context, rawURL string) (*http.Request, *APIError) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, invalidRequest(rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, invalidRequest(rawURL, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return nil, invalidRequest(rawURL, errors.New("missing host"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, invalidRequest(rawURL, err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// perform runs req through the transport and classifies the status code.
// Only a 200 with a body is handed downstream.
func (f *Fetcher) perform(req *http.Request, log *zap.Logger) ([]byte, *APIError) {
	data, resp, err := f.transport.Perform(req)
	if err != nil {
		return nil, networkingError(err)
	}
	if resp == nil {
		return nil, invalidResponse("no HTTP response")
	}

	code := resp.StatusCode
	log.Debug("feed response", zap.Int("status", code), zap.Int("bytes", len(data)))

	switch {
	case code == http.StatusOK:
		if len(data) == 0 {
			return nil, invalidResponse("empty body")
		}
		return data, nil
	case code >= 300 && code <= 499:
		return nil, statusError(KindClient, code)
	case code >= 500 && code <= 599:
		return nil, statusError(KindServer, code)
	default:
		return nil, statusError(KindUnexpectedStatus, code)
	}
}
