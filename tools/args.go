package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NoArgs is the argument type of tools that take no parameters.
type NoArgs struct{}

// SourceArgs identifies a source by resource name.
type SourceArgs struct {
	SourceName string `json:"sourceName" jsonschema_description:"Resource name of the source, e.g. sources/github/owner/repo"`
}

// SessionArgs identifies a session.
type SessionArgs struct {
	SessionID string `json:"sessionId" jsonschema_description:"ID of the session"`
}

// CreateSessionArgs are the parameters of create_session.
type CreateSessionArgs struct {
	Prompt              string `json:"prompt" jsonschema_description:"Task description for the agent"`
	Source              string `json:"source" jsonschema_description:"Resource name of the source to work on"`
	RequirePlanApproval *bool  `json:"requirePlanApproval,omitempty" jsonschema_description:"Wait for explicit plan approval before the agent starts working"`
}

// SendMessageArgs are the parameters of send_message.
type SendMessageArgs struct {
	SessionID string `json:"sessionId" jsonschema_description:"ID of the session"`
	Prompt    string `json:"prompt" jsonschema_description:"Message to send to the agent"`
}

// argSchema is the generated JSON schema of an argument struct, compiled
// for validating raw call arguments.
type argSchema struct {
	raw      json.RawMessage
	compiled *jsonschema.Schema
}

// reflectSchema generates a strict object schema for A: unknown properties
// are rejected and every field without omitempty is required.
func reflectSchema[A any](tool string) (argSchema, error) {
	r := &invopop.Reflector{
		DoNotReference:            true,
		Anonymous:                 true,
		AllowAdditionalProperties: false,
	}
	s := r.Reflect(new(A))
	s.Version = ""

	raw, err := json.Marshal(s)
	if err != nil {
		return argSchema{}, fmt.Errorf("failed to marshal schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return argSchema{}, fmt.Errorf("failed to parse schema: %w", err)
	}
	loc := tool + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(loc, doc); err != nil {
		return argSchema{}, fmt.Errorf("failed to add schema: %w", err)
	}
	compiled, err := c.Compile(loc)
	if err != nil {
		return argSchema{}, fmt.Errorf("failed to compile schema: %w", err)
	}
	return argSchema{raw: raw, compiled: compiled}, nil
}

// decodeArgs validates raw against schema and decodes it into A.
// Keys are matched exactly: encoding/json alone would also bind
// case-variant keys such as "sessionid" to SessionID.
func decodeArgs[A any](tool string, schema argSchema, raw map[string]any) (A, error) {
	var args A

	if raw == nil {
		raw = map[string]any{}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return args, &ArgumentError{Tool: tool, Reason: err.Error()}
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return args, &ArgumentError{Tool: tool, Reason: err.Error()}
	}
	if err := schema.compiled.Validate(inst); err != nil {
		return args, toArgumentError(tool, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&args); err != nil {
		return args, &ArgumentError{Tool: tool, Reason: err.Error()}
	}
	return args, nil
}

var messages = message.NewPrinter(language.English)

// toArgumentError reduces a validation failure to its first leaf cause.
func toArgumentError(tool string, err error) *ArgumentError {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &ArgumentError{Tool: tool, Reason: err.Error()}
	}
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}

	field := strings.Join(verr.InstanceLocation, "/")
	switch k := verr.ErrorKind.(type) {
	case *kind.Required:
		if len(k.Missing) > 0 {
			return &ArgumentError{Tool: tool, Field: k.Missing[0], Reason: "is required"}
		}
	case *kind.AdditionalProperties:
		if len(k.Properties) > 0 {
			return &ArgumentError{Tool: tool, Field: k.Properties[0], Reason: "is not allowed"}
		}
	case *kind.Type:
		return &ArgumentError{
			Tool:   tool,
			Field:  field,
			Reason: fmt.Sprintf("must be a %s, got %s", strings.Join(k.Want, " or "), k.Got),
		}
	}
	return &ArgumentError{Tool: tool, Field: field, Reason: verr.ErrorKind.LocalizedString(messages)}
}
