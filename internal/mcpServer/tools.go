package mcpServer

import (
	"context"

	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/rag"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AskInput struct {
	Question string `json:"question" jsonschema:"the question about the documentation"`
}

type AskOutput struct {
	Answer        string   `json:"answer"`
	ContextChunks string   `json:"context_chunks,omitempty"`
	Sources       []string `json:"sources"`
	NoEvidence    bool     `json:"no_evidence"`
	Cached        bool     `json:"cached"`
}

type SearchInput struct {
	Question string `json:"question" jsonschema:"the text to find similar documentation chunks for"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 3)"`
}

type SearchOutput struct {
	Matches []MatchOutput `json:"matches"`
	Count   int           `json:"count"`
}

type MatchOutput struct {
	Id      string  `json:"id"`
	Score   float64 `json:"score"`
	Title   string  `json:"title,omitempty"`
	Content string  `json:"content,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the indexed documentation",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Return the documentation chunks most similar to a question, with scores",
	}, s.handleSearch)
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	res, err := s.rag.Ask(ctx, input.Question)
	if err != nil {
		s.logger.WithTrace(ctx).Warn("ask tool failed", "error", err)
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{
		Answer:        res.Answer,
		ContextChunks: res.Context,
		Sources:       nonNil(res.Sources),
		NoEvidence:    res.Outcome == rag.OutcomeNoEvidence,
		Cached:        res.Cached,
	}, nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = s.topK
	}
	matches, err := s.rag.Search(ctx, input.Question, topK)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	out := SearchOutput{Matches: make([]MatchOutput, len(matches)), Count: len(matches)}
	for i, m := range matches {
		title, _ := m.Metadata[commonModels.MetaTitle].(string)
		content, _ := m.Metadata[commonModels.MetaPageContent].(string)
		out.Matches[i] = MatchOutput{Id: m.Id, Score: m.Score, Title: title, Content: content}
	}
	return nil, out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
