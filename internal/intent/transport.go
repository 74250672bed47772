package intent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// maxRawDetail bounds how much of an upstream body ends up in error details.
const maxRawDetail = 2048

type rawCaptureKey struct{}

// rawCapture collects the response body of one upstream call so parse
// failures can report what the API actually sent.
type rawCapture struct {
	buf bytes.Buffer
}

// Write keeps the first maxRawDetail+1 bytes and drops the rest. It never
// fails so the tee keeps feeding the decoder.
func (r *rawCapture) Write(p []byte) (int, error) {
	if room := maxRawDetail + 1 - r.buf.Len(); room > 0 {
		if len(p) > room {
			r.buf.Write(p[:room])
		} else {
			r.buf.Write(p)
		}
	}
	return len(p), nil
}

func (r *rawCapture) String() string {
	s := strings.TrimSpace(r.buf.String())
	if len(s) > maxRawDetail {
		return s[:maxRawDetail] + "..."
	}
	return s
}

func withRawCapture(ctx context.Context) (context.Context, *rawCapture) {
	rc := &rawCapture{}
	return context.WithValue(ctx, rawCaptureKey{}, rc), rc
}

type captureTransport struct {
	base http.RoundTripper
}

func (t captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.Body == nil {
		return resp, err
	}
	if rc, ok := req.Context().Value(rawCaptureKey{}).(*rawCapture); ok {
		resp.Body = teeReadCloser{Reader: io.TeeReader(resp.Body, rc), Closer: resp.Body}
	}
	return resp, nil
}

type teeReadCloser struct {
	io.Reader
	io.Closer
}

// NewClient returns a go-openai client for any OpenAI-compatible endpoint
// (Groq by default).
func NewClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: captureTransport{base: http.DefaultTransport},
	}
	return openai.NewClientWithConfig(cfg)
}

func isNetError(err error) bool {
	var ne net.Error
	return errors.As(err, &ne)
}
