package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"julesmcp/julesapi"
)

// API is the upstream surface the tools call. *julesapi.Client implements it.
type API interface {
	ListSources(ctx context.Context) (julesapi.Object, error)
	GetSource(ctx context.Context, sourceName string) (julesapi.Object, error)
	ListSessions(ctx context.Context) (julesapi.Object, error)
	GetSession(ctx context.Context, sessionID string) (julesapi.Object, error)
	CreateSession(ctx context.Context, prompt, source string, requirePlanApproval *bool) (julesapi.Object, error)
	ApprovePlan(ctx context.Context, sessionID string) (julesapi.Object, error)
	ListActivities(ctx context.Context, sessionID string) (julesapi.Object, error)
	SendMessage(ctx context.Context, sessionID, prompt string) (julesapi.Object, error)
}

var _ API = (*julesapi.Client)(nil)

// Descriptor declares one tool: its name, description, argument schema and
// the upstream operation it maps to.
type Descriptor struct {
	Name        string
	Description string
	InputSchema json.RawMessage

	// Invoke decodes raw arguments and calls the upstream operation.
	// It returns an *ArgumentError when the arguments are invalid, before
	// api is touched. api is obtained lazily so that invalid arguments and
	// missing credentials never construct a client.
	Invoke func(ctx context.Context, api func() (API, error), raw map[string]any) (julesapi.Object, error)
}

// Tool returns the MCP tool definition for d.
func (d Descriptor) Tool() mcp.Tool {
	return mcp.NewToolWithRawSchema(d.Name, d.Description, d.InputSchema)
}

// define builds a Descriptor whose arguments are decoded into A.
func define[A any](name, description string, call func(ctx context.Context, api API, args A) (julesapi.Object, error)) Descriptor {
	schema, err := reflectSchema[A](name)
	if err != nil {
		// Argument types are fixed at compile time; a failure here is a bug.
		panic(fmt.Sprintf("tools: schema for %s: %v", name, err))
	}
	return Descriptor{
		Name:        name,
		Description: description,
		InputSchema: schema.raw,
		Invoke: func(ctx context.Context, api func() (API, error), raw map[string]any) (julesapi.Object, error) {
			args, err := decodeArgs[A](name, schema, raw)
			if err != nil {
				return nil, err
			}
			client, err := api()
			if err != nil {
				return nil, err
			}
			return call(ctx, client, args)
		},
	}
}

// Descriptors returns the full tool table in registration order.
func Descriptors() []Descriptor {
	return []Descriptor{
		define("list_sources", "List available sources",
			func(ctx context.Context, api API, _ NoArgs) (julesapi.Object, error) {
				return api.ListSources(ctx)
			}),
		define("get_source", "Get a source by name",
			func(ctx context.Context, api API, args SourceArgs) (julesapi.Object, error) {
				return api.GetSource(ctx, args.SourceName)
			}),
		define("get_session", "Get a session by ID",
			func(ctx context.Context, api API, args SessionArgs) (julesapi.Object, error) {
				return api.GetSession(ctx, args.SessionID)
			}),
		define("create_session", "Create a new session that works on a source starting from the main branch and opens a pull request when done",
			func(ctx context.Context, api API, args CreateSessionArgs) (julesapi.Object, error) {
				return api.CreateSession(ctx, args.Prompt, args.Source, args.RequirePlanApproval)
			}),
		define("list_sessions", "List all sessions",
			func(ctx context.Context, api API, _ NoArgs) (julesapi.Object, error) {
				return api.ListSessions(ctx)
			}),
		define("approve_plan", "Approve a session's plan",
			func(ctx context.Context, api API, args SessionArgs) (julesapi.Object, error) {
				return api.ApprovePlan(ctx, args.SessionID)
			}),
		define("list_activities", "List all activities in a session",
			func(ctx context.Context, api API, args SessionArgs) (julesapi.Object, error) {
				return api.ListActivities(ctx, args.SessionID)
			}),
		define("send_message", "Send a message to the agent in a session",
			func(ctx context.Context, api API, args SendMessageArgs) (julesapi.Object, error) {
				return api.SendMessage(ctx, args.SessionID, args.Prompt)
			}),
	}
}
