// Package mcp is the tool-invocation facade: a JSON-RPC 2.0 server speaking
// the Model Context Protocol over stdio, exposing the gateway services as
// tools an agent can call. One JSON message per line, requests in on stdin,
// responses out on stdout; logs go to stderr so they never corrupt the frame
// stream.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/custodia-labs/tradegate/internal/core/ports/driving"
)

const defaultProtocolVersion = "2025-06-18"

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toolContent is a single content block in a tools/call result.
type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolResult struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError"`
}

// Server reads JSON-RPC requests from in and writes responses to out.
type Server struct {
	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	version string

	sessionService   driving.SessionService
	brokerageService driving.BrokerageService

	tools    []toolDefinition
	handlers map[string]toolHandler
}

// Config holds tool server configuration.
type Config struct {
	Version string
	In      io.Reader
	Out     io.Writer
	Logger  *slog.Logger
}

// NewServer creates a tool server over the given streams.
func NewServer(
	cfg Config,
	sessionService driving.SessionService,
	brokerageService driving.BrokerageService,
) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		in:               cfg.In,
		out:              cfg.Out,
		logger:           logger,
		version:          cfg.Version,
		sessionService:   sessionService,
		brokerageService: brokerageService,
	}
	s.registerTools()
	return s
}

// Run processes requests until the input stream closes or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("tool server started", "tools", len(s.tools))

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		s.handleLine(ctx, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request stream: %w", err)
	}
	return nil
}

func (s *Server) handleLine(ctx context.Context, line []byte) {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		s.writeResponse(response{
			JSONRPC: "2.0",
			ID:      json.RawMessage("null"),
			Error:   &rpcError{Code: codeParseError, Message: "parse error"},
		})
		return
	}

	// Requests without an id are notifications and get no reply.
	if isNotification(req.ID) {
		s.logger.Debug("notification received", "method", req.Method)
		return
	}

	resp := response{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = s.handleInitialize(req.Params)
	case "ping":
		resp.Result = map[string]any{}
	case "tools/list":
		resp.Result = map[string]any{"tools": s.tools}
	case "tools/call":
		result, rpcErr := s.handleToolCall(ctx, req.Params)
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
	default:
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}

	s.writeResponse(resp)
}

func (s *Server) handleInitialize(params json.RawMessage) any {
	var init struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	_ = json.Unmarshal(params, &init)

	protocolVersion := init.ProtocolVersion
	if protocolVersion == "" {
		protocolVersion = defaultProtocolVersion
	}

	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    "tradegate",
			"version": s.version,
		},
	}
}

func (s *Server) handleToolCall(ctx context.Context, params json.RawMessage) (any, *rpcError) {
	var call struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: "invalid params"}
	}

	handler, ok := s.handlers[call.Name]
	if !ok {
		return nil, &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf("unknown tool: %s", call.Name)}
	}

	s.logger.Info("tool call", "tool", call.Name)
	payload := handler(ctx, call.Arguments)

	text, err := json.Marshal(payload)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: "failed to encode tool result"}
	}

	return toolResult{
		Content: []toolContent{{Type: "text", Text: string(text)}},
	}, nil
}

func (s *Server) writeResponse(resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := s.out.Write(data); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

func isNotification(id json.RawMessage) bool {
	return len(id) == 0 || bytes.Equal(bytes.TrimSpace(id), []byte("null"))
}
