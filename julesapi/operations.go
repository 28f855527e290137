package julesapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// AutomationModeAutoCreatePR makes Jules open a pull request when a session
// finishes. Sessions created through this package always use it.
const AutomationModeAutoCreatePR = "AUTO_CREATE_PR"

// DefaultStartingBranch is the branch every new session starts from.
const DefaultStartingBranch = "main"

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Prompt         string        `json:"prompt"`
	SourceContext  SourceContext `json:"sourceContext"`
	AutomationMode string        `json:"automationMode"`
	// RequirePlanApproval is omitted from the body entirely when nil.
	RequirePlanApproval *bool `json:"requirePlanApproval,omitempty"`
}

// SourceContext names the source a session runs against.
type SourceContext struct {
	Source            string            `json:"source"`
	GithubRepoContext GithubRepoContext `json:"githubRepoContext"`
}

// GithubRepoContext pins the branch a session starts from.
type GithubRepoContext struct {
	StartingBranch string `json:"startingBranch"`
}

// SendMessageRequest is the body of POST /sessions/{id}:sendMessage.
type SendMessageRequest struct {
	Prompt string `json:"prompt"`
}

// escapeSegment percent-encodes s for use as a single path segment.
// Everything outside A-Z a-z 0-9 - _ . ~ is encoded, including '/', '?',
// '#' and ':'. That is slightly stricter than encodeURIComponent, which
// leaves !'()* alone; the server decodes both forms to the same segment.
func escapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func sessionPath(sessionID string) string {
	return "/sessions/" + escapeSegment(sessionID)
}

// ListSources lists the sources available to the caller.
func (c *Client) ListSources(ctx context.Context) (Object, error) {
	return c.do(ctx, http.MethodGet, "/sources", nil)
}

// GetSource fetches a source by its resource name.
func (c *Client) GetSource(ctx context.Context, sourceName string) (Object, error) {
	return c.do(ctx, http.MethodGet, "/"+escapeSegment(sourceName), nil)
}

// ListSessions lists the caller's sessions.
func (c *Client) ListSessions(ctx context.Context) (Object, error) {
	return c.do(ctx, http.MethodGet, "/sessions", nil)
}

// GetSession fetches a session by id.
func (c *Client) GetSession(ctx context.Context, sessionID string) (Object, error) {
	return c.do(ctx, http.MethodGet, sessionPath(sessionID), nil)
}

// CreateSession starts a new session on source. The session always starts
// from DefaultStartingBranch with AutomationModeAutoCreatePR. A nil
// requirePlanApproval leaves the choice to the upstream default.
func (c *Client) CreateSession(ctx context.Context, prompt, source string, requirePlanApproval *bool) (Object, error) {
	body := CreateSessionRequest{
		Prompt: prompt,
		SourceContext: SourceContext{
			Source: source,
			GithubRepoContext: GithubRepoContext{
				StartingBranch: DefaultStartingBranch,
			},
		},
		AutomationMode:      AutomationModeAutoCreatePR,
		RequirePlanApproval: requirePlanApproval,
	}
	return c.do(ctx, http.MethodPost, "/sessions", body)
}

// ApprovePlan approves the pending plan of a session.
func (c *Client) ApprovePlan(ctx context.Context, sessionID string) (Object, error) {
	return c.do(ctx, http.MethodPost, sessionPath(sessionID)+":approvePlan", nil)
}

// ListActivities lists the activities recorded for a session.
func (c *Client) ListActivities(ctx context.Context, sessionID string) (Object, error) {
	return c.do(ctx, http.MethodGet, sessionPath(sessionID)+"/activities", nil)
}

// SendMessage sends a follow-up prompt to the agent working in a session.
func (c *Client) SendMessage(ctx context.Context, sessionID, prompt string) (Object, error) {
	return c.do(ctx, http.MethodPost, sessionPath(sessionID)+":sendMessage", SendMessageRequest{Prompt: prompt})
}
