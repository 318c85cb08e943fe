package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"5b0c1f8e-4f7a-4a8e-9d43-1c2f7e3e9a10"`
	JobType   string            `json:"job_type,omitempty" example:"Query"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

// RAGResponse carries the question, the exact context the LLM saw, the answer and the chunk ids used.
type RAGResponse struct {
	Question      string   `json:"question"`
	ContextChunks string   `json:"context_chunks,omitempty"`
	Answer        string   `json:"answer"`
	Sources       []string `json:"sources"`
	Cached        bool     `json:"cached,omitempty"`
}

type IngestResponse struct {
	DocumentName  string `json:"document_name"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

type Result struct {
	Status              string          `json:"status" example:"COMPLETE"`
	CurrentStep         string          `json:"current_step,omitempty" example:"LLM"`
	RAGExternalResponse *RAGResponse    `json:"rag_response,omitempty"`
	IngestResponse      *IngestResponse `json:"ingest_response,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type MatchResponse struct {
	Id       string         `json:"id" example:"doc-12"`
	Score    float64        `json:"score" example:"0.8731"`
	Title    string         `json:"title,omitempty"`
	Content  string         `json:"content,omitempty"`
	Metadata map[string]any `json:"metadata"`
}

type SearchResponse struct {
	Question string          `json:"question"`
	Matches  []MatchResponse `json:"matches"`
}

// requests---------------------

type AskRequest struct {
	Question string `json:"question" validate:"required" example:"How do I register a tool on an agent?"`
}

type SearchRequest struct {
	Question string `json:"question" validate:"required"`
	TopK     int    `json:"top_k,omitempty" example:"3"`
}
