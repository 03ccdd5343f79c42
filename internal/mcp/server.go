// Package mcp serves the tool surface over stdio as line-delimited
// JSON-RPC 2.0, the Model Context Protocol framing. Tool failures are not
// protocol errors; they travel as degraded JSON inside a successful result.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/meridianlabs/yubin/internal/tools"
)

const protocolVersion = "2024-11-05"

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// maxLineBytes bounds a single incoming message.
const maxLineBytes = 4 * 1024 * 1024

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func (r *request) isNotification() bool {
	return len(r.ID) == 0
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type capabilities struct {
	Tools struct{} `json:"tools"`
}

type initializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    capabilities `json:"capabilities"`
	ServerInfo      serverInfo   `json:"serverInfo"`
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolCallResult struct {
	Content []contentItem `json:"content"`
}

// Server answers MCP requests by dispatching tool calls.
type Server struct {
	dispatcher *tools.Dispatcher
	version    string
	logger     *zap.Logger
}

// NewServer creates an MCP server over the given dispatcher. version is
// reported in the initialize handshake.
func NewServer(dispatcher *tools.Dispatcher, version string, logger *zap.Logger) *Server {
	return &Server{dispatcher: dispatcher, version: version, logger: logger}
}

// Serve reads one JSON-RPC message per line from in and writes responses
// to out, until in is exhausted or ctx is canceled. Notifications produce
// no response.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("unparseable message", zap.Error(err))
			s.write(out, errorResponse(nil, codeParseError, "parse error"))
			continue
		}
		if req.isNotification() {
			s.logger.Debug("notification", zap.String("method", req.Method))
			continue
		}
		s.write(out, s.handle(ctx, &req))
	}
	return scanner.Err()
}

func (s *Server) handle(ctx context.Context, req *request) *response {
	s.logger.Debug("rpc request", zap.String("method", req.Method))

	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, initializeResult{
			ProtocolVersion: protocolVersion,
			ServerInfo:      serverInfo{Name: "yubin", Version: s.version},
		})
	case "ping":
		return resultResponse(req.ID, struct{}{})
	case "tools/list":
		return resultResponse(req.ID, map[string]interface{}{"tools": s.dispatcher.List()})
	case "tools/call":
		return s.handleToolCall(ctx, req)
	default:
		return errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (s *Server) handleToolCall(ctx context.Context, req *request) *response {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return errorResponse(req.ID, codeInvalidParams, "tools/call requires a tool name")
	}

	result, err := s.dispatcher.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		return errorResponse(req.ID, codeInvalidParams, err.Error())
	}
	text, err := json.Marshal(result)
	if err != nil {
		return errorResponse(req.ID, codeInternalError, err.Error())
	}
	return resultResponse(req.ID, toolCallResult{
		Content: []contentItem{{Type: "text", Text: string(text)}},
	})
}

func (s *Server) write(out io.Writer, resp *response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to marshal response", zap.Error(err))
		return
	}
	data = append(data, '\n')
	if _, err := out.Write(data); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}

func resultResponse(id json.RawMessage, result interface{}) *response {
	return &response{JSONRPC: "2.0", ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) *response {
	return &response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}}
}
