package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/DocQA/internal/api"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:      string(job.Status),
		CurrentStep: string(job.CurrentStep),
	}
	if job.JobType == jobModel.JobTypeIngest {
		result.IngestResponse = ToIngestStatus(job)
	} else {
		result.RAGExternalResponse = ToRAGExternalStatus(job.JobPayload)
	}

	return api.JobResponse{
		Id:        job.Id,
		JobType:   string(job.JobType),
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func ToRAGExternalStatus(ragData jobModel.JobPayload) *api.RAGResponse {
	if ragData.Answer == "" && len(ragData.Sources) == 0 {
		return nil
	}

	return &api.RAGResponse{
		Question:      ragData.Question,
		ContextChunks: ragData.Context,
		Answer:        ragData.Answer,
		Sources:       ragData.Sources,
		Cached:        ragData.Cached,
	}
}

func ToIngestStatus(job jobModel.Job) *api.IngestResponse {
	if !job.IsFinal() {
		return nil
	}
	return &api.IngestResponse{
		DocumentName:  job.JobPayload.IngestFileName,
		ChunksIndexed: job.JobPayload.ChunksIndexed,
	}
}

func ToSearchResponse(question string, matches []commonModels.Match) api.SearchResponse {
	out := api.SearchResponse{Question: question, Matches: make([]api.MatchResponse, 0, len(matches))}
	for _, m := range matches {
		title, _ := m.Metadata[commonModels.MetaTitle].(string)
		content, _ := m.Metadata[commonModels.MetaPageContent].(string)
		out.Matches = append(out.Matches, api.MatchResponse{
			Id:       m.Id,
			Score:    m.Score,
			Title:    title,
			Content:  content,
			Metadata: m.Metadata,
		})
	}
	return out
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
