// Package tools maps MCP tool calls onto Jules API operations.
//
// Every tool follows the same pipeline: validate arguments, take the
// caller's credential from the request context, build a fresh client, make
// one upstream call, render the result.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"julesmcp/auth"
	"julesmcp/julesapi"
	loggerv2 "julesmcp/logger/v2"
)

// ResultFormat selects how successful results are returned.
type ResultFormat string

const (
	// ResultStructured returns structured content plus a JSON text fallback.
	ResultStructured ResultFormat = "structured"
	// ResultText returns indented JSON text only.
	ResultText ResultFormat = "text"
)

// ParseResultFormat validates s. An empty string selects ResultStructured.
func ParseResultFormat(s string) (ResultFormat, error) {
	switch ResultFormat(s) {
	case "", ResultStructured:
		return ResultStructured, nil
	case ResultText:
		return ResultText, nil
	default:
		return "", fmt.Errorf("unknown result format %q (want %q or %q)", s, ResultStructured, ResultText)
	}
}

// ClientFactory builds an API client for one credential.
type ClientFactory func(credential string) API

// FactoryFrom adapts a julesapi.Factory to a ClientFactory.
func FactoryFrom(f *julesapi.Factory) ClientFactory {
	return func(credential string) API {
		return f.NewClient(credential)
	}
}

// Registry holds the tool table and the dependencies shared by all calls.
type Registry struct {
	descriptors []Descriptor
	byName      map[string]Descriptor
	factory     ClientFactory
	format      ResultFormat
	logger      loggerv2.Logger
}

// Option customizes a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l loggerv2.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithResultFormat sets how results are rendered.
func WithResultFormat(f ResultFormat) Option {
	return func(r *Registry) {
		if f != "" {
			r.format = f
		}
	}
}

// WithDescriptors replaces the default tool table.
func WithDescriptors(ds []Descriptor) Option {
	return func(r *Registry) {
		r.descriptors = ds
	}
}

// NewRegistry returns a registry of all tools backed by factory.
func NewRegistry(factory ClientFactory, opts ...Option) *Registry {
	r := &Registry{
		descriptors: Descriptors(),
		factory:     factory,
		format:      ResultStructured,
		logger:      loggerv2.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.byName = make(map[string]Descriptor, len(r.descriptors))
	for _, d := range r.descriptors {
		r.byName[d.Name] = d
	}
	return r
}

// Descriptors returns the registered tool table.
func (r *Registry) Descriptors() []Descriptor {
	return r.descriptors
}

// Handler returns the MCP handler for the named tool.
func (r *Registry) Handler(name string) (server.ToolHandlerFunc, bool) {
	d, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.handler(d), true
}

// ServerTools returns every tool paired with its handler, ready for
// (*server.MCPServer).AddTools.
func (r *Registry) ServerTools() []server.ServerTool {
	out := make([]server.ServerTool, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, server.ServerTool{
			Tool:    d.Tool(),
			Handler: r.handler(d),
		})
	}
	return out
}

func (r *Registry) handler(d Descriptor) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log := r.logger.With(
			loggerv2.String("tool", d.Name),
			loggerv2.String("call_id", uuid.New().String()[:8]),
		)
		start := time.Now()

		obj, err := d.Invoke(ctx, func() (API, error) {
			credential, ok := auth.CredentialFromContext(ctx)
			if !ok {
				return nil, ErrUnauthorized
			}
			return r.factory(credential), nil
		}, req.GetArguments())
		if err != nil {
			return r.failure(log, d.Name, err), nil
		}

		result, err := r.render(obj)
		if err != nil {
			return r.failure(log, d.Name, err), nil
		}
		log.Debug("tool call completed", loggerv2.Duration("duration", time.Since(start)))
		return result, nil
	}
}

// failure turns err into a tool error result. Caller-facing errors keep
// their message; everything else is logged and replaced by a generic one.
func (r *Registry) failure(log loggerv2.Logger, tool string, err error) *mcp.CallToolResult {
	if isCallerFacing(err) {
		log.Warn("tool call rejected", loggerv2.Error(err))
		return mcp.NewToolResultError(err.Error())
	}

	fields := []loggerv2.Field{}
	var apiErr *julesapi.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields,
			loggerv2.Int("upstream_status", apiErr.StatusCode),
			loggerv2.Bool("upstream_auth_rejected", apiErr.IsAuthError()),
		)
	}
	log.Error(fmt.Sprintf("Error in %s", tool), err, fields...)
	return mcp.NewToolResultError(internalErrorMessage(tool))
}

func (r *Registry) render(obj julesapi.Object) (*mcp.CallToolResult, error) {
	if obj == nil {
		obj = julesapi.Object{}
	}
	text, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	if r.format == ResultText {
		return mcp.NewToolResultText(string(text)), nil
	}
	return mcp.NewToolResultStructured(obj, string(text)), nil
}
