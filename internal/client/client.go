package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"voice-assistant-backend/internal/config"
	"voice-assistant-backend/internal/types"
)

const (
	DefaultTimeout = 10 * time.Second
	NoResponse     = "No response received."
)

// StatusError is returned by Send when the server relay answers with anything
// but 200. Body is the raw response body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Error %d: %s", e.StatusCode, e.Body)
}

// Relay forwards typed queries to the server relay. It remembers the last
// submitted text and is meant for a single interactive session.
type Relay struct {
	httpClient *http.Client
	endpoint   string
	userID     string
	lastText   string
	log        *zap.Logger
}

// New creates a Relay for the configured endpoint.
func New(cfg config.ClientConfig, log *zap.Logger) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	endpoint := cfg.APIURL
	if endpoint == "" {
		endpoint = config.DefaultAPIURL
	}
	return &Relay{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		userID:     cfg.UserID,
		log:        log,
	}
}

func (r *Relay) LastText() string { return r.lastText }

// Send posts one query and returns the assistant reply. A 200 answer without a
// response field yields NoResponse.
func (r *Relay) Send(ctx context.Context, text string) (string, error) {
	in := types.VoiceInput{Text: text}
	if r.userID != "" {
		in.UserID = &r.userID
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return "", errors.Wrap(err, "encode voice input")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	r.log.Debug("server relay answered",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	var out struct {
		Response *string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	if out.Response == nil {
		return NoResponse, nil
	}
	return *out.Response, nil
}

// Submit sends line, or the previously submitted text when line is blank, and
// returns what should be shown to the user. ok is false when there was
// nothing to send.
func (r *Relay) Submit(ctx context.Context, line string) (display string, ok bool) {
	text := strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(text) == "" {
		text = r.lastText
	}
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	r.lastText = text

	reply, err := r.Send(ctx, text)
	return Render(reply, err), true
}

// Render turns the outcome of Send into the line shown to the user.
func Render(reply string, err error) string {
	if err == nil {
		return reply
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	return fmt.Sprintf("Request failed: %v", err)
}

// Interact runs the prompt loop until in is exhausted or ctx is done.
func (r *Relay) Interact(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		if r.lastText != "" {
			fmt.Fprintf(out, "Enter your query [%s]: ", r.lastText)
		} else {
			fmt.Fprint(out, "Enter your query: ")
		}
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		shown, ok := r.Submit(ctx, scanner.Text())
		if !ok {
			continue
		}
		fmt.Fprintln(out, shown)
	}
}
