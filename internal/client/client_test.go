package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"voice-assistant-backend/internal/config"
)

type recordedRequest struct {
	Method      string
	ContentType string
	Body        map[string]any
}

type fakeRelayServer struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeRelayServer) record(t *testing.T, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(b, &body))
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{
		Method:      r.Method,
		ContentType: r.Header.Get("Content-Type"),
		Body:        body,
	})
}

func (f *fakeRelayServer) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newTestRelay(t *testing.T, status int, body string) (*Relay, *fakeRelayServer) {
	t.Helper()
	fake := &fakeRelayServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.record(t, r)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := config.ClientConfig{APIURL: srv.URL + "/process-voice", UserID: "123", Timeout: time.Second}
	return New(cfg, zaptest.NewLogger(t)), fake
}

func TestSend_PostsTextAndUserID(t *testing.T) {
	relay, fake := newTestRelay(t, http.StatusOK, `{"response": "It's sunny."}`)

	reply, err := relay.Send(context.Background(), "What's the weather?")
	require.NoError(t, err)
	assert.Equal(t, "It's sunny.", reply)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "application/json", reqs[0].ContentType)
	assert.Equal(t, map[string]any{"text": "What's the weather?", "user_id": "123"}, reqs[0].Body)
}

func TestSend_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantReply string
		wantShown string
		wantErr   bool
	}{
		{
			name:      "reply",
			status:    http.StatusOK,
			body:      `{"response": "Hello!"}`,
			wantReply: "Hello!",
			wantShown: "Hello!",
		},
		{
			name:      "missing response field",
			status:    http.StatusOK,
			body:      `{}`,
			wantReply: NoResponse,
			wantShown: NoResponse,
		},
		{
			name:      "server error",
			status:    http.StatusInternalServerError,
			body:      `{"detail":"Database error: connection refused"}`,
			wantShown: `Error 500: {"detail":"Database error: connection refused"}`,
			wantErr:   true,
		},
		{
			name:      "validation error",
			status:    http.StatusUnprocessableEntity,
			body:      `{"detail":"(root): text is required"}`,
			wantShown: `Error 422: {"detail":"(root): text is required"}`,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay, _ := newTestRelay(t, tt.status, tt.body)

			reply, err := relay.Send(context.Background(), "hi")
			if tt.wantErr {
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, tt.status, statusErr.StatusCode)
				assert.Equal(t, tt.body, statusErr.Body)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantReply, reply)
			}
			assert.Equal(t, tt.wantShown, Render(reply, err))
		})
	}
}

func TestSend_InvalidJSONIsRequestFailure(t *testing.T) {
	relay, _ := newTestRelay(t, http.StatusOK, `not json`)

	reply, err := relay.Send(context.Background(), "hi")
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
	assert.Contains(t, Render(reply, err), "Request failed: decode response")
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	relay := New(config.ClientConfig{APIURL: srv.URL, Timeout: 50 * time.Millisecond}, zaptest.NewLogger(t))

	start := time.Now()
	reply, err := relay.Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Contains(t, Render(reply, err), "Request failed:")
}

func TestSend_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	relay := New(config.ClientConfig{APIURL: url, Timeout: time.Second}, zaptest.NewLogger(t))
	reply, err := relay.Send(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, Render(reply, err), "Request failed:")
}

func TestSend_OmitsEmptyUserID(t *testing.T) {
	relay, fake := newTestRelay(t, http.StatusOK, `{"response": "ok"}`)
	relay.userID = ""

	_, err := relay.Send(context.Background(), "hi")
	require.NoError(t, err)
	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]any{"text": "hi"}, reqs[0].Body)
}

func TestSubmit_RemembersLastText(t *testing.T) {
	relay, fake := newTestRelay(t, http.StatusOK, `{"response": "ok"}`)
	ctx := context.Background()

	_, ok := relay.Submit(ctx, "   \n")
	assert.False(t, ok, "nothing to send before the first query")
	assert.Empty(t, fake.Requests())

	shown, ok := relay.Submit(ctx, "turn on the lights\n")
	require.True(t, ok)
	assert.Equal(t, "ok", shown)
	assert.Equal(t, "turn on the lights", relay.LastText())

	shown, ok = relay.Submit(ctx, "")
	require.True(t, ok)
	assert.Equal(t, "ok", shown)

	reqs := fake.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "turn on the lights", reqs[1].Body["text"])
}

func TestNew_Defaults(t *testing.T) {
	relay := New(config.ClientConfig{}, nil)
	assert.Equal(t, config.DefaultAPIURL, relay.endpoint)
	assert.Equal(t, DefaultTimeout, relay.httpClient.Timeout)
}

func TestInteract_PromptLoop(t *testing.T) {
	relay, fake := newTestRelay(t, http.StatusOK, `{"response": "It's sunny."}`)
	in := strings.NewReader("What's the weather?\n\n")
	var out bytes.Buffer

	require.NoError(t, relay.Interact(context.Background(), in, &out))

	assert.Equal(t,
		"Enter your query: It's sunny.\n"+
			"Enter your query [What's the weather?]: It's sunny.\n"+
			"Enter your query [What's the weather?]: \n",
		out.String())
	assert.Len(t, fake.Requests(), 2)
}

func TestInteract_StopsOnCanceledContext(t *testing.T) {
	relay, fake := newTestRelay(t, http.StatusOK, `{"response": "ok"}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := relay.Interact(ctx, strings.NewReader("hi\n"), io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.Requests())
}
