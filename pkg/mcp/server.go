package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/isitobservable/ynab-mcp/pkg/telemetry"
	"github.com/isitobservable/ynab-mcp/pkg/tools"
	"github.com/isitobservable/ynab-mcp/pkg/types"
)

const (
	mcpProtocolVersion = "2025-03-26"
	maxResultAttrLen   = 1024

	errTypeUnknownTool = "UNKNOWN_TOOL"
)

// sensitiveKeys are argument key substrings that should be redacted from span attributes.
var sensitiveKeys = []string{"secret", "token", "key", "password", "credential"}

// Dispatcher is the tool layer behind the protocol server.
type Dispatcher interface {
	ListTools() []tools.Descriptor
	Dispatch(ctx context.Context, name string, args tools.Arguments) tools.Result
}

type Server struct {
	mcpServer  *mcp.Server
	httpServer *http.Server
	dispatcher Dispatcher
	meters     *telemetry.Meters
	tracer     trace.Tracer
}

// NewServer registers every catalog tool with an MCP server. meters may be
// nil, in which case no metrics are recorded.
func NewServer(dispatcher Dispatcher, meters *telemetry.Meters, version string) (*Server, error) {
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    telemetry.ServiceName,
			Version: version,
		}, nil),
		dispatcher: dispatcher,
		meters:     meters,
		tracer:     otel.Tracer(telemetry.ServiceName),
	}

	descs := dispatcher.ListTools()
	known := make(map[string]struct{}, len(descs))
	for _, d := range descs {
		tool, err := buildMCPTool(d)
		if err != nil {
			return nil, err
		}
		s.mcpServer.AddTool(tool, s.buildInstrumentedHandler(d.Name))
		known[d.Name] = struct{}{}
	}
	s.mcpServer.AddReceivingMiddleware(s.unknownToolMiddleware(known))
	slog.Info("mcp: registered tools", "total", len(descs))
	return s, nil
}

// unknownToolMiddleware sends tools/call requests for unregistered names to
// the dispatcher, which answers with an error result instead of the SDK's
// protocol error.
func (s *Server) unknownToolMiddleware(known map[string]struct{}) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}
			call, ok := req.(*mcp.CallToolRequest)
			if !ok || call.Params == nil {
				return next(ctx, method, req)
			}
			if _, ok := known[call.Params.Name]; ok {
				return next(ctx, method, req)
			}
			res, err := s.buildInstrumentedHandler(call.Params.Name)(ctx, call)
			if err != nil {
				return nil, err
			}
			return res, nil
		}
	}
}

// Run serves a single session over t until it closes or ctx is done.
func (s *Server) Run(ctx context.Context, t mcp.Transport) error {
	slog.Info("mcp: serving session", "transport", fmt.Sprintf("%T", t))
	return s.mcpServer.Run(ctx, t)
}

// Handler returns the Streamable HTTP handler mounted at /mcp.
func (s *Server) Handler() http.Handler {
	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", otelhttp.NewHandler(handler, "mcp"))
	return mux
}

// Start serves Streamable HTTP on addr. It returns nil after Shutdown.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("mcp: starting Streamable HTTP server", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// buildMCPTool converts a descriptor through its JSON form, which matches the
// protocol's tool shape.
func buildMCPTool(d tools.Descriptor) (*mcp.Tool, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding tool %s: %w", d.Name, err)
	}
	tool := &mcp.Tool{}
	if err := json.Unmarshal(raw, tool); err != nil {
		return nil, fmt.Errorf("decoding tool %s: %w", d.Name, err)
	}
	return tool, nil
}

// buildInstrumentedHandler creates a ToolHandler that wraps dispatch
// with OTel spans, metrics, and context propagation per GenAI + MCP semantic conventions.
// Failures are always reported in the result, never as a protocol error.
func (s *Server) buildInstrumentedHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Extract traceparent/tracestate from params._meta
		if meta := request.Params.GetMeta(); meta != nil {
			carrier := propagation.MapCarrier{}
			for k, v := range meta {
				if str, ok := v.(string); ok {
					carrier.Set(k, str)
				}
			}
			ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)
		}

		sessionID := ""
		if request.Session != nil {
			sessionID = request.Session.ID()
		}
		callID := uuid.NewString()

		ctx, span := s.tracer.Start(ctx, "execute_tool "+name,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		span.SetAttributes(
			attribute.String("gen_ai.operation.name", "execute_tool"),
			attribute.String("gen_ai.tool.name", name),
			attribute.String("gen_ai.tool.call.id", callID),
			attribute.String("mcp.method.name", "tools/call"),
			attribute.String("mcp.protocol.version", mcpProtocolVersion),
			attribute.String("mcp.session.id", sessionID),
		)

		args, err := tools.DecodeArguments(request.Params.Arguments)
		if err != nil {
			mcpErr := types.InvalidParameter("arguments", err.Error())
			mcpErr.Tool = name
			s.recordMetrics(ctx, name, mcpErr.Code, 0)
			s.recordError(ctx, span, name, mcpErr.Code, mcpErr)
			return toCallToolResult(tools.Result{
				Content: []string{"Error: " + mcpErr.Error()},
				IsError: true,
				Err:     mcpErr,
			}), nil
		}
		span.SetAttributes(attribute.String("gen_ai.tool.call.arguments", sanitizeArgs(args.Map())))

		slog.Debug("mcp: tool call", "tool", name, "call_id", callID, "session", sessionID)

		start := time.Now()
		res := s.dispatcher.Dispatch(ctx, name, args)
		duration := time.Since(start).Seconds()

		if res.IsError {
			errType := types.Code(res.Err)
			if errType == "" {
				errType = errTypeUnknownTool
			}
			s.recordMetrics(ctx, name, errType, duration)
			cause := res.Err
			if cause == nil {
				cause = errors.New(res.Text())
			}
			s.recordError(ctx, span, name, errType, cause)
			slog.Debug("mcp: tool call failed", "tool", name, "call_id", callID, "error.type", errType)
			return toCallToolResult(res), nil
		}

		s.recordMetrics(ctx, name, "", duration)
		span.SetStatus(codes.Ok, "")

		text := res.Text()
		if len(text) > maxResultAttrLen {
			text = text[:maxResultAttrLen]
		}
		span.SetAttributes(attribute.String("gen_ai.tool.call.result", text))

		return toCallToolResult(res), nil
	}
}

func toCallToolResult(res tools.Result) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(res.Content))
	for _, c := range res.Content {
		content = append(content, &mcp.TextContent{Text: c})
	}
	return &mcp.CallToolResult{Content: content, IsError: res.IsError}
}

// recordMetrics records GenAI request duration and count metrics.
func (s *Server) recordMetrics(ctx context.Context, toolName, errType string, duration float64) {
	if s.meters == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("gen_ai.tool.name", toolName),
	}
	if errType != "" {
		attrs = append(attrs, attribute.String("error.type", errType))
	}
	s.meters.RequestDuration.Record(ctx, duration, telemetry.WithAttrs(attrs...))
	s.meters.RequestCount.Add(ctx, 1, telemetry.WithAttrs(attrs...))
}

// recordError records error metrics and sets span error status.
func (s *Server) recordError(ctx context.Context, span trace.Span, toolName, errType string, err error) {
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.type", errType))
	span.RecordError(err)

	if s.meters == nil {
		return
	}
	s.meters.ErrorsTotal.Add(ctx, 1, telemetry.WithAttrs(
		attribute.String("error.code", errType),
		attribute.String("gen_ai.tool.name", toolName),
	))
	if errType == types.ErrCodeRateLimited {
		s.meters.RateLimitRejections.Add(ctx, 1, telemetry.WithAttrs(
			attribute.String("gen_ai.tool.name", toolName),
		))
	}
}

// sanitizeArgs returns a JSON string of the arguments with sensitive values redacted.
func sanitizeArgs(args map[string]any) string {
	sanitized := make(map[string]any, len(args))
	for k, v := range args {
		if isSensitiveKey(k) {
			sanitized[k] = "[REDACTED]"
		} else {
			sanitized[k] = v
		}
	}
	b, err := json.Marshal(sanitized)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// isSensitiveKey checks if a key name suggests it contains sensitive data.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
