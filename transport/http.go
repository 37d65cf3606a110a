package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/net/publicsuffix"
)

// DefaultHTTPTimeout is the client timeout for HTTP transports made
// by NewHTTP.
var DefaultHTTPTimeout = 30 * time.Second

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP status %d: %s", e.Code, e.Body)
}

// HTTP sends each flush as the body of one request.
type HTTP struct {
	URL         string
	Method      string
	ContentType string
	Header      http.Header

	// Compress zstd-compresses request bodies.
	Compress bool

	Client *http.Client

	Debug bool

	buffer
}

// NewHTTP makes an HTTP transport that POSTs to url with a client
// that keeps cookies between requests.
func NewHTTP(url, contentType string) (*HTTP, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &HTTP{
		URL:         url,
		Method:      http.MethodPost,
		ContentType: contentType,
		Client: &http.Client{
			Jar:     jar,
			Timeout: DefaultHTTPTimeout,
		},
	}, nil
}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdErr     error
)

// compress uses one shared encoder.  EncodeAll is safe for
// concurrent use.
func compress(bs []byte) ([]byte, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	if zstdErr != nil {
		return nil, zstdErr
	}
	return zstdEncoder.EncodeAll(bs, make([]byte, 0, len(bs))), nil
}

func (h *HTTP) send(ctx context.Context, bs []byte) error {
	if len(bs) == 0 {
		return nil
	}
	if h.Compress {
		var err error
		if bs, err = compress(bs); err != nil {
			return err
		}
	}
	method := h.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, h.URL, bytes.NewReader(bs))
	if err != nil {
		return err
	}
	for k, vs := range h.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if h.ContentType != "" {
		req.Header.Set("Content-Type", h.ContentType)
	}
	if h.Compress {
		req.Header.Set("Content-Encoding", "zstd")
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	logf(h.Debug, "http %s %s (%d bytes)", method, h.URL, len(bs))
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || 300 <= resp.StatusCode {
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// Flush sends everything buffered.  Nothing is sent if nothing is
// buffered.
func (h *HTTP) Flush() error {
	return h.send(context.Background(), h.take())
}

// FlushContext is Flush with ctx on the request.
func (h *HTTP) FlushContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.send(ctx, h.take())
}
