package feed

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inngest/go-httpstat"
	"go.uber.org/zap"
)

// Transport performs a single HTTP request and hands back the raw body,
// the response metadata, or the transport failure.
type Transport interface {
	Perform(req *http.Request) (data []byte, resp *http.Response, err error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(req *http.Request) ([]byte, *http.Response, error)

func (f TransportFunc) Perform(req *http.Request) ([]byte, *http.Response, error) {
	return f(req)
}

// HTTPTransport performs requests through one shared *http.Client.
// It is safe for concurrent use.
type HTTPTransport struct {
	client *http.Client
	logger *zap.Logger
}

func NewHTTPTransport(client *http.Client, logger *zap.Logger) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPTransport{client: client, logger: logger}
}

func (t *HTTPTransport) Perform(req *http.Request) ([]byte, *http.Response, error) {
	stat := &httpstat.Result{}
	req = req.WithContext(httpstat.WithHTTPStat(req.Context(), stat))

	resp, err := t.client.Do(req)
	if err != nil {
		stat.End(time.Now())
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	stat.End(time.Now())
	if err != nil {
		return nil, resp, fmt.Errorf("reading response body: %w", err)
	}

	t.logger.Debug("request timings",
		zap.String("url", req.URL.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("dns_lookup", stat.DNSLookup),
		zap.Duration("tcp_connection", stat.TCPConnection),
		zap.Duration("tls_handshake", stat.TLSHandshake),
		zap.Duration("server_processing", stat.ServerProcessing),
		zap.Duration("total", stat.Total),
	)

	return data, resp, nil
}
