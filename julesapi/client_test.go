package julesapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// fakeJules records every request and replies with status and body.
type fakeJules struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func newFakeJules(t *testing.T, status int, body string) (*fakeJules, *httptest.Server) {
	t.Helper()
	f := &fakeJules{status: status, body: body}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Header: r.Header.Clone(),
			Body:   data,
		})
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeJules) only(t *testing.T) recordedRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.requests, 1, "expected exactly one upstream request")
	return f.requests[0]
}

func boolPtr(b bool) *bool { return &b }

func TestClient_Operations(t *testing.T) {
	tests := []struct {
		name       string
		call       func(ctx context.Context, c *Client) (Object, error)
		wantMethod string
		wantPath   string
		wantBody   bool
	}{
		{
			name:       "list sources",
			call:       func(ctx context.Context, c *Client) (Object, error) { return c.ListSources(ctx) },
			wantMethod: http.MethodGet,
			wantPath:   "/v1alpha/sources",
		},
		{
			name: "get source",
			call: func(ctx context.Context, c *Client) (Object, error) {
				return c.GetSource(ctx, "sources/github/acme/widgets")
			},
			wantMethod: http.MethodGet,
			wantPath:   "/v1alpha/sources%2Fgithub%2Facme%2Fwidgets",
		},
		{
			name:       "list sessions",
			call:       func(ctx context.Context, c *Client) (Object, error) { return c.ListSessions(ctx) },
			wantMethod: http.MethodGet,
			wantPath:   "/v1alpha/sessions",
		},
		{
			name:       "get session",
			call:       func(ctx context.Context, c *Client) (Object, error) { return c.GetSession(ctx, "123") },
			wantMethod: http.MethodGet,
			wantPath:   "/v1alpha/sessions/123",
		},
		{
			name: "create session",
			call: func(ctx context.Context, c *Client) (Object, error) {
				return c.CreateSession(ctx, "fix bug", "repo-x", nil)
			},
			wantMethod: http.MethodPost,
			wantPath:   "/v1alpha/sessions",
			wantBody:   true,
		},
		{
			name:       "approve plan",
			call:       func(ctx context.Context, c *Client) (Object, error) { return c.ApprovePlan(ctx, "123") },
			wantMethod: http.MethodPost,
			wantPath:   "/v1alpha/sessions/123:approvePlan",
		},
		{
			name:       "list activities",
			call:       func(ctx context.Context, c *Client) (Object, error) { return c.ListActivities(ctx, "123") },
			wantMethod: http.MethodGet,
			wantPath:   "/v1alpha/sessions/123/activities",
		},
		{
			name: "send message",
			call: func(ctx context.Context, c *Client) (Object, error) {
				return c.SendMessage(ctx, "123", "also add tests")
			},
			wantMethod: http.MethodPost,
			wantPath:   "/v1alpha/sessions/123:sendMessage",
			wantBody:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, srv := newFakeJules(t, http.StatusOK, `{"name":"x","extra":{"nested":[1,2]}}`)
			c := NewClient(srv.URL+"/v1alpha", "secret-key")

			got, err := tt.call(context.Background(), c)
			require.NoError(t, err)
			assert.Equal(t, Object{"name": "x", "extra": map[string]any{"nested": []any{1.0, 2.0}}}, got)

			req := fake.only(t)
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, tt.wantPath, req.Path)
			assert.Equal(t, "secret-key", req.Header.Get(APIKeyHeader))
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			if tt.wantBody {
				assert.NotEmpty(t, req.Body)
			} else {
				assert.Empty(t, req.Body)
			}
		})
	}
}

func TestClient_EscapesPathIdentifiers(t *testing.T) {
	tests := []struct {
		name     string
		call     func(ctx context.Context, c *Client) error
		wantPath string
	}{
		{
			name: "get source",
			call: func(ctx context.Context, c *Client) error {
				_, err := c.GetSource(ctx, "a/b?c")
				return err
			},
			wantPath: "/a%2Fb%3Fc",
		},
		{
			name: "get session",
			call: func(ctx context.Context, c *Client) error {
				_, err := c.GetSession(ctx, "../admin?x=1")
				return err
			},
			wantPath: "/sessions/..%2Fadmin%3Fx%3D1",
		},
		{
			name: "list activities",
			call: func(ctx context.Context, c *Client) error {
				_, err := c.ListActivities(ctx, "a/b")
				return err
			},
			wantPath: "/sessions/a%2Fb/activities",
		},
		{
			name: "approve plan",
			call: func(ctx context.Context, c *Client) error {
				_, err := c.ApprovePlan(ctx, "id#frag")
				return err
			},
			wantPath: "/sessions/id%23frag:approvePlan",
		},
		{
			name: "send message",
			call: func(ctx context.Context, c *Client) error {
				_, err := c.SendMessage(ctx, "with space/slash", "hi")
				return err
			},
			wantPath: "/sessions/with%20space%2Fslash:sendMessage",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, srv := newFakeJules(t, http.StatusOK, `{}`)
			require.NoError(t, tt.call(context.Background(), NewClient(srv.URL, "k")))
			assert.Equal(t, tt.wantPath, fake.only(t).Path)
		})
	}
}

func TestClient_CreateSessionBody(t *testing.T) {
	tests := []struct {
		name        string
		approval    *bool
		wantPresent bool
		wantValue   bool
	}{
		{name: "omitted", approval: nil},
		{name: "true", approval: boolPtr(true), wantPresent: true, wantValue: true},
		{name: "false", approval: boolPtr(false), wantPresent: true, wantValue: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, srv := newFakeJules(t, http.StatusOK, `{"id":"s1"}`)
			_, err := NewClient(srv.URL, "k").CreateSession(context.Background(), "fix bug", "repo-x", tt.approval)
			require.NoError(t, err)

			var body map[string]any
			require.NoError(t, json.Unmarshal(fake.only(t).Body, &body))

			assert.Equal(t, "fix bug", body["prompt"])
			assert.Equal(t, AutomationModeAutoCreatePR, body["automationMode"])
			sourceContext, ok := body["sourceContext"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "repo-x", sourceContext["source"])
			assert.Equal(t, map[string]any{"startingBranch": "main"}, sourceContext["githubRepoContext"])

			value, present := body["requirePlanApproval"]
			assert.Equal(t, tt.wantPresent, present)
			if tt.wantPresent {
				assert.Equal(t, tt.wantValue, value)
			}
		})
	}
}

func TestClient_SendMessageBody(t *testing.T) {
	fake, srv := newFakeJules(t, http.StatusOK, `{}`)
	_, err := NewClient(srv.URL, "k").SendMessage(context.Background(), "s1", "please rebase")
	require.NoError(t, err)
	assert.JSONEq(t, `{"prompt":"please rebase"}`, string(fake.only(t).Body))
}

func TestClient_EmptySuccessBody(t *testing.T) {
	_, srv := newFakeJules(t, http.StatusOK, "")
	got, err := NewClient(srv.URL, "k").ApprovePlan(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, Object{}, got)
}

func TestClient_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantStatus  string
		wantMessage string
		wantAuth    bool
	}{
		{
			name:        "google envelope",
			status:      http.StatusForbidden,
			body:        `{"error":{"code":403,"message":"The caller does not have permission","status":"PERMISSION_DENIED"}}`,
			wantStatus:  "PERMISSION_DENIED",
			wantMessage: "The caller does not have permission",
			wantAuth:    true,
		},
		{
			name:        "plain text",
			status:      http.StatusBadGateway,
			body:        "upstream exploded",
			wantMessage: "upstream exploded",
		},
		{
			name:        "not found json without envelope",
			status:      http.StatusNotFound,
			body:        `{"oops":true}`,
			wantMessage: `{"oops":true}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newFakeJules(t, tt.status, tt.body)
			got, err := NewClient(srv.URL, "k").GetSession(context.Background(), "s1")
			require.Error(t, err)
			assert.Nil(t, got)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantAuth, apiErr.IsAuthError())
			assert.Contains(t, err.Error(), tt.wantMessage)
		})
	}
}

func TestClient_LongErrorBodyKeepsValidUTF8(t *testing.T) {
	// 511 ASCII bytes put a 3-byte rune across the cut-off.
	body := strings.Repeat("a", maxErrorBody-1) + strings.Repeat("€", 10)
	_, srv := newFakeJules(t, http.StatusServiceUnavailable, body)

	_, err := NewClient(srv.URL, "k").ListSources(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))

	assert.True(t, utf8.ValidString(apiErr.Message))
	assert.True(t, strings.HasSuffix(apiErr.Message, "..."))
	assert.Equal(t, strings.Repeat("a", maxErrorBody-1)+"...", apiErr.Message)
}

func TestClient_EscapesLikeURIComponentOrStricter(t *testing.T) {
	fake, srv := newFakeJules(t, http.StatusOK, `{}`)
	_, err := NewClient(srv.URL, "k").GetSession(context.Background(), "it's(1)*!")
	require.NoError(t, err)
	assert.Equal(t, "/sessions/it%27s%281%29%2A%21", fake.only(t).Path)
}

func TestClient_NetworkError(t *testing.T) {
	_, srv := newFakeJules(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "k").ListSessions(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_InvalidJSONBody(t *testing.T) {
	_, srv := newFakeJules(t, http.StatusOK, `not json`)
	_, err := NewClient(srv.URL, "k").ListSources(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestNewClient_Defaults(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("", "k").BaseURL())
	assert.Equal(t, "http://example.test/v1", NewClient("http://example.test/v1/", "k").BaseURL())
}

func TestFactory_ClientsAreIndependent(t *testing.T) {
	fake, srv := newFakeJules(t, http.StatusOK, `{}`)
	f := NewFactory(srv.URL, 0, "test-agent")

	_, err := f.NewClient("key-one").ListSources(context.Background())
	require.NoError(t, err)
	_, err = f.NewClient("key-two").ListSources(context.Background())
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.requests, 2)
	assert.Equal(t, "key-one", fake.requests[0].Header.Get(APIKeyHeader))
	assert.Equal(t, "key-two", fake.requests[1].Header.Get(APIKeyHeader))
	assert.Equal(t, "test-agent", fake.requests[1].Header.Get("User-Agent"))
}
