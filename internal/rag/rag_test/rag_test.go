package rag_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/rag"
	"github.com/akolanti/DocQA/internal/rag/assembler"
)

func TestProcessRequest_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		question       string
		setupMocks     func(e *MockEmbedder, v *MockVectorDB, l *MockLLM)
		expectedStep   jobModel.InternalStatus
		expectedStatus jobModel.JobStatus
		expectedAnswer string
		expectedCode   int
	}{
		{
			name: "Success_Full_Flow",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				l.OnComplete = func(ctx context.Context, system, user string) (string, error) {
					return "final answer", nil
				}
			},
			expectedStep:   jobModel.Complete,
			expectedStatus: jobModel.JobStatusComplete,
			expectedAnswer: "final answer",
		},
		{
			name: "Success_Cache_Hit",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnGetCachedAnswer = func(ctx context.Context, emb []float32) (commonModels.CachedAnswer, bool, error) {
					return commonModels.CachedAnswer{Answer: "cached answer", Context: "cached context"}, true, nil
				}
				v.OnQuery = func(ctx context.Context, v []float32, k int) ([]commonModels.Match, error) {
					return nil, errors.New("must not be queried")
				}
			},
			expectedStep:   jobModel.Complete,
			expectedStatus: jobModel.JobStatusComplete,
			expectedAnswer: "cached answer",
		},
		{
			name: "Cache_Error_Falls_Through",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnGetCachedAnswer = func(ctx context.Context, emb []float32) (commonModels.CachedAnswer, bool, error) {
					return commonModels.CachedAnswer{}, false, errors.New("cache down")
				}
			},
			expectedStep:   jobModel.Complete,
			expectedStatus: jobModel.JobStatusComplete,
			expectedAnswer: "mocked llm response",
		},
		{
			name: "No_Evidence",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnQuery = func(ctx context.Context, v []float32, k int) ([]commonModels.Match, error) {
					return nil, nil
				}
				l.OnComplete = func(ctx context.Context, system, user string) (string, error) {
					return "", errors.New("must not be called")
				}
			},
			expectedStep:   jobModel.Complete,
			expectedStatus: jobModel.JobStatusNoEvidence,
			expectedAnswer: assembler.NotAvailableAnswer,
		},
		{
			name:           "Blank_Question",
			question:       "   ",
			setupMocks:     func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {},
			expectedStep:   jobModel.Error,
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusBadRequest,
		},
		{
			name: "Failure_Embedding",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				e.OnEmbedQuery = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			expectedStep:   jobModel.Error,
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusInternalServerError,
		},
		{
			name: "Failure_Vector_Search",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnQuery = func(ctx context.Context, v []float32, k int) ([]commonModels.Match, error) {
					return nil, errors.New("db timeout")
				}
			},
			expectedStep:   jobModel.Error,
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusInternalServerError,
		},
		{
			name: "LLM_Failure_Returns_Placeholder",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				l.OnComplete = func(ctx context.Context, system, user string) (string, error) {
					return "", errors.New("provider down")
				}
			},
			expectedStep:   jobModel.Complete,
			expectedStatus: jobModel.JobStatusComplete,
			expectedAnswer: rag.LLMErrorPlaceholder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mVec := &MockVectorDB{}
			mLLM := &MockLLM{}

			tt.setupMocks(mEmbed, mVec, mLLM)

			s := rag.NewService(mVec, mLLM, mEmbed, &MockIngester{}, 3)

			question := tt.question
			if question == "" {
				question = "test question"
			}
			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			job := jobModel.Job{
				Id:         "test-job",
				JobPayload: jobModel.JobPayload{Question: question},
			}

			result := s.ProcessRequest(ctx, job)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			if result.CurrentStep != tt.expectedStep {
				t.Errorf("Step got %v, want %v", result.CurrentStep, tt.expectedStep)
			}
			if tt.expectedAnswer != "" && result.JobPayload.Answer != tt.expectedAnswer {
				t.Errorf("Answer got %s, want %s", result.JobPayload.Answer, tt.expectedAnswer)
			}
			if tt.expectedCode != 0 && result.Error.Code != tt.expectedCode {
				t.Errorf("Error Code got %d, want %d", result.Error.Code, tt.expectedCode)
			}
		})
	}
}

func TestAsk_BlankQuestionMakesNoExternalCall(t *testing.T) {
	mEmbed := &MockEmbedder{}
	s := rag.NewService(&MockVectorDB{}, &MockLLM{}, mEmbed, nil, 3)

	_, err := s.Ask(context.Background(), " \n\t")
	if !errors.Is(err, rag.ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
	if mEmbed.Calls != 0 {
		t.Errorf("embedder called %d times for a blank question", mEmbed.Calls)
	}
}

func TestAsk_PromptCarriesAssembledContext(t *testing.T) {
	var gotSystem, gotUser string
	saved := make(chan commonModels.CachedAnswer, 1)

	v := &MockVectorDB{
		OnSaveToCache: func(ctx context.Context, vec []float32, a commonModels.CachedAnswer) error {
			saved <- a
			return nil
		},
	}
	l := &MockLLM{OnComplete: func(ctx context.Context, system, user string) (string, error) {
		gotSystem, gotUser = system, user
		return "Agents are defined with Agent(...)", nil
	}}
	s := rag.NewService(v, l, &MockEmbedder{}, nil, 3)

	res, err := s.Ask(context.Background(), "  How do I define an agent?  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantContext := "Title: Agents\nScore: 0.9000\nContent:\ndefault context"
	if res.Context != wantContext {
		t.Errorf("Context got %q, want %q", res.Context, wantContext)
	}
	if gotSystem != assembler.SystemMessage {
		t.Errorf("unexpected system message %q", gotSystem)
	}
	if !strings.Contains(gotUser, wantContext) || !strings.Contains(gotUser, "How do I define an agent?") {
		t.Errorf("prompt is missing context or question: %q", gotUser)
	}
	if res.Outcome != rag.OutcomeAnswered || len(res.Sources) != 1 || res.Sources[0] != "doc-0" {
		t.Errorf("unexpected result %+v", res)
	}

	select {
	case a := <-saved:
		if a.Answer != res.Answer || a.Context != res.Context {
			t.Errorf("cached %+v, want answer and context of the result", a)
		}
	case <-time.After(2 * time.Second):
		t.Error("answer was not saved to the cache")
	}
}

func TestAsk_LLMFailureKeepsContextAndSkipsCache(t *testing.T) {
	saved := make(chan struct{}, 1)
	v := &MockVectorDB{
		OnSaveToCache: func(ctx context.Context, vec []float32, a commonModels.CachedAnswer) error {
			saved <- struct{}{}
			return nil
		},
	}
	l := &MockLLM{OnComplete: func(ctx context.Context, system, user string) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	s := rag.NewService(v, l, &MockEmbedder{}, nil, 3)

	res, err := s.Ask(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Answer != rag.LLMErrorPlaceholder || res.Context == "" {
		t.Errorf("unexpected result %+v", res)
	}

	select {
	case <-saved:
		t.Error("placeholder answers must not be cached")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSearch_UsesRequestedTopK(t *testing.T) {
	var gotK int
	v := &MockVectorDB{OnQuery: func(ctx context.Context, vec []float32, k int) ([]commonModels.Match, error) {
		gotK = k
		return []commonModels.Match{{Id: "doc-2", Score: 0.5}, {Id: "doc-1", Score: 0.7}}, nil
	}}
	s := rag.NewService(v, &MockLLM{}, &MockEmbedder{}, nil, 3)

	matches, err := s.Search(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotK != 5 {
		t.Errorf("topK got %d, want 5", gotK)
	}
	if len(matches) != 2 || matches[0].Id != "doc-1" {
		t.Errorf("matches not ranked best first: %+v", matches)
	}
}

func TestIngestDocument_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		process        func(ctx context.Context, job jobModel.Job) jobModel.Job
		expectedStatus jobModel.JobStatus
		expectedCode   int
	}{
		{
			name: "Ingestion_Success",
			process: func(ctx context.Context, job jobModel.Job) jobModel.Job {
				job.Status = jobModel.JobStatusComplete
				job.JobPayload.ChunksIndexed = 4
				return job
			},
			expectedStatus: jobModel.JobStatusComplete,
		},
		{
			name: "Ingestion_Failure",
			process: func(ctx context.Context, job jobModel.Job) jobModel.Job {
				job.Status = jobModel.JobStatusError
				job.Error.Message = "disk full"
				return job
			},
			expectedStatus: jobModel.JobStatusError,
			expectedCode:   http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := rag.NewService(&MockVectorDB{}, &MockLLM{}, &MockEmbedder{}, &MockIngester{OnProcess: tt.process}, 3)

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "ingest-trace")
			job := jobModel.Job{
				Id:         "ingest-job-1",
				JobPayload: jobModel.JobPayload{IngestFileName: "notes.txt", IngestURL: "/tmp/notes.txt"},
			}

			result := s.IngestDocument(ctx, job)

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}
			if tt.expectedCode != 0 && result.Error.Code != tt.expectedCode {
				t.Errorf("Error Code got %d, want %d", result.Error.Code, tt.expectedCode)
			}
		})
	}
}
