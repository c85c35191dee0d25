package tools

import (
	"context"
	"strings"
)

// Descriptor is the static, catalog-registered description of one tool.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Annotations Annotations    `json:"annotations"`
}

// Annotations are the behavioral hints advertised to MCP clients.
type Annotations struct {
	ReadOnly    bool `json:"readOnlyHint"`
	Destructive bool `json:"destructiveHint"`
	Idempotent  bool `json:"idempotentHint"`
	OpenWorld   bool `json:"openWorldHint"`
}

var (
	readOnly    = Annotations{ReadOnly: true, Destructive: false, Idempotent: true, OpenWorld: false}
	writeAction = Annotations{ReadOnly: false, Destructive: false, Idempotent: false, OpenWorld: false}
)

// HandlerFunc validates its arguments, calls the remote service and renders
// the result as a single text block.
type HandlerFunc func(ctx context.Context, args Arguments) (string, error)

// Result is the outcome of one dispatched call.
type Result struct {
	Content []string
	IsError bool

	// Err is the classified failure behind an error result. It is never
	// rendered; it exists for instrumentation.
	Err error
}

// Text joins the content blocks.
func (r Result) Text() string {
	return strings.Join(r.Content, "\n")
}

func textResult(text string) Result {
	return Result{Content: []string{text}}
}
