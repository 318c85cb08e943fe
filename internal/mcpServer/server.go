// Package mcpServer exposes the ask and search operations as Model Context Protocol tools.
package mcpServer

import (
	"errors"
	"net/http"

	"github.com/akolanti/DocQA/internal/rag"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "0.1.0"

type Server struct {
	rag    rag.Service
	topK   int
	server *mcp.Server
	logger *logger_i.Logger
}

func NewServer(ragService rag.Service, topK int) (*Server, error) {
	if ragService == nil {
		return nil, errors.New("mcp: nil rag service")
	}
	s := &Server{
		rag:    ragService,
		topK:   topK,
		server: mcp.NewServer(&mcp.Implementation{Name: "docqa", Version: Version}, nil),
		logger: logger_i.NewLogger("mcp_server"),
	}
	s.registerTools()
	return s, nil
}

// HTTPHandler serves the tools over streamable HTTP. Every request shares one server.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, &mcp.StreamableHTTPOptions{Stateless: true})
}
