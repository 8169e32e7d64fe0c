// Package mcp exposes the catalog and knowledge base to AI agents over the
// Model Context Protocol (JSON-RPC 2.0 over HTTP).
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/arturoeanton/blaize-bazaar/internal/domain"
	"github.com/arturoeanton/blaize-bazaar/internal/service"
)

const protocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Server implements the MCP tools endpoint.
type Server struct {
	search   *service.SearchService
	chat     *service.ChatService
	insights *service.InsightsService
	port     string
	version  string
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new MCP server.
func NewServer(search *service.SearchService, chat *service.ChatService, insights *service.InsightsService, port, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:   search,
		chat:     chat,
		insights: insights,
		port:     port,
		version:  version,
		logger:   logger.Named("mcp"),
	}
	s.app = fiber.New(fiber.Config{AppName: "blaize-bazaar-mcp"})
	s.app.Post("/mcp", s.handleRPC)
	return s
}

// Tool is an MCP tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// JSONRPCRequest is a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("MCP server starting", zap.String("port", s.port))
	return s.app.Listen(":"+s.port, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleRPC(c fiber.Ctx) error {
	var req JSONRPCRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return writeError(c, nil, codeParseError, "parse error")
	}

	var result interface{}
	var err error

	switch req.Method {
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": protocolVersion,
			"serverInfo": map[string]string{
				"name":    "blaize-bazaar",
				"version": s.version,
			},
			"capabilities": map[string]interface{}{
				"tools": map[string]bool{"listChanged": false},
			},
		}
	case "tools/list":
		result = map[string]interface{}{"tools": tools}
	case "tools/call":
		result, err = s.callTool(c.Context(), req.Params)
	default:
		return writeError(c, req.ID, codeMethodNotFound, "method not found")
	}

	if err != nil {
		code := codeInternalError
		if _, ok := err.(paramsError); ok {
			code = codeInvalidParams
		}
		s.logger.Warn("tool call failed", zap.Error(err))
		return writeError(c, req.ID, code, err.Error())
	}
	return c.JSON(JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
}

var tools = []Tool{
	{
		Name:        "compare_search",
		Description: "Compare keyword and semantic search results for a product query",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Product search query"},
				"top_k": {"type": "integer", "minimum": 1, "maximum": 50, "description": "Results per strategy (default 5)"}
			},
			"required": ["query"]
		}`),
	},
	{
		Name:        "recommend_products",
		Description: "Recommend catalog products for a shopper preference",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"preference": {"type": "string", "description": "What the shopper is looking for"},
				"top_k": {"type": "integer", "minimum": 1, "maximum": 50, "description": "Number of products (default 3)"}
			},
			"required": ["preference"]
		}`),
	},
	{
		Name:        "ask_knowledge_base",
		Description: "Answer a question from the store knowledge base with citations",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"question": {"type": "string"},
				"model": {"type": "string", "description": "claude-3-5-sonnet or claude-3-haiku"}
			},
			"required": ["question"]
		}`),
	},
	{
		Name:        "product_insights",
		Description: "Return the product insights dashboard",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"top": {"type": "integer", "minimum": 1, "maximum": 50}
			}
		}`),
	},
}

type paramsError struct{ msg string }

func (e paramsError) Error() string { return e.msg }

func decodeArgs(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return paramsError{msg: fmt.Sprintf("invalid arguments: %v", err)}
	}
	return nil
}

func textContent(text string, extra map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, paramsError{msg: fmt.Sprintf("invalid params: %v", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	switch req.Name {
	case "compare_search":
		var args struct {
			Query string `json:"query"`
			TopK  int    `json:"top_k"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		if args.TopK == 0 {
			args.TopK = 5
		}
		cmp, err := s.search.CompareSearch(ctx, args.Query, args.TopK)
		if err != nil {
			return nil, err
		}
		text := formatResultSet(cmp.Lexical) + "\n" + formatResultSet(cmp.Semantic)
		return textContent(text, map[string]interface{}{"comparison": cmp}), nil

	case "recommend_products":
		var args struct {
			Preference string `json:"preference"`
			TopK       int    `json:"top_k"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		rec, err := s.search.Recommend(ctx, args.Preference, args.TopK)
		if err != nil {
			return nil, err
		}
		text := rec.Text
		switch {
		case rec.NoMatch:
			text = "No matching products found."
		case rec.GenerationError != "":
			text = formatResultSet(rec.Products)
		}
		return textContent(text, map[string]interface{}{"products": rec.Products.Results}), nil

	case "ask_knowledge_base":
		var args struct {
			Question string `json:"question"`
			Model    string `json:"model"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		session := domain.NewChatSession("mcp", time.Now())
		answer, err := s.chat.Ask(ctx, session, args.Question, args.Model, true)
		if err != nil {
			return nil, err
		}
		return textContent(answer.Text, map[string]interface{}{
			"citations":  answer.Citations,
			"no_context": answer.NoContext,
		}), nil

	case "product_insights":
		var args struct {
			Top int `json:"top"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		d, err := s.insights.Dashboard(ctx, args.Top)
		if err != nil {
			return nil, err
		}
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, err
		}
		return textContent(string(data), nil), nil

	default:
		return nil, paramsError{msg: fmt.Sprintf("unknown tool: %s", req.Name)}
	}
}

func formatResultSet(rs domain.ResultSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s search (%d ms):\n", rs.Strategy, rs.LatencyMS)
	if rs.Err != nil {
		fmt.Fprintf(&b, "  error: %v\n", rs.Err)
		return b.String()
	}
	if len(rs.Results) == 0 {
		b.WriteString("  no matches\n")
	}
	for i, r := range rs.Results {
		fmt.Fprintf(&b, "  %d. %s [%s] $%.2f, %.1f stars (score %.4f)\n",
			i+1, r.Description, r.Category, r.Price, r.Stars, r.Score)
	}
	return b.String()
}

func writeError(c fiber.Ctx, id interface{}, code int, message string) error {
	return c.JSON(JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}})
}
