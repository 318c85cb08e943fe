package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/DocQA/internal/adapter"
	"github.com/akolanti/DocQA/internal/adapter/utils"
	"github.com/akolanti/DocQA/internal/api"
	"github.com/akolanti/DocQA/internal/domain/commonModels"
	"github.com/akolanti/DocQA/internal/rag"
)

const maxUploadSize = 32 << 20 //32mb

func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// AskHandler godoc
// @Summary      Ask a question about the documentation
// @Description  Validates the question, queues an ask job and returns its id. Poll the status URL for the answer.
// @Tags         Ask
// @Accept       json
// @Produce      json
// @Param        request  body      api.AskRequest       true  "The question"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Blank or malformed question"
// @Router       /ask [post]
func (h *Handler) AskHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		return
	}
	defer request.Body.Close()

	var requestData api.AskRequest
	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil {
		logRH.WithTrace(request.Context()).Warn("Bad ask request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}
	if strings.TrimSpace(requestData.Question) == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", rag.ErrEmptyQuestion.Error())
		return
	}

	newJob := newJobData{
		id:      newJobID(),
		message: requestData.Question,
		traceId: traceID(request.Context()),
	}
	h.createNewJob(request.Context(), newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of an ask or ingest job. Ask jobs with no matching documentation end in NO_EVIDENCE.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found"
// @Router       /status/{id} [get]
func (h *Handler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := h.getJobStatus(r.Context(), idString)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// SearchHandler godoc
// @Summary      Retrieve matching chunks
// @Description  Embeds the question and returns the top-K most similar chunks with their scores. No answer is generated.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body      api.SearchRequest   true  "Question and optional top_k"
// @Success      200      {object}  api.SearchResponse
// @Failure      400      {object}  api.JobResponse     "Blank or malformed question"
// @Failure      502      {object}  api.JobResponse     "Embedding provider or vector index failed"
// @Router       /search [post]
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	defer r.Body.Close()

	var req api.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = h.topK
	}

	matches, err := h.rag.Search(r.Context(), req.Question, topK)
	switch {
	case errors.Is(err, rag.ErrEmptyQuestion):
		WriteErrorResponse(w, http.StatusBadRequest, "", err.Error())
		return
	case err != nil:
		logRH.WithTrace(r.Context()).Error("Search failed", "error", err)
		WriteErrorResponse(w, http.StatusBadGateway, "", "Search failed")
		return
	}
	if matches == nil {
		matches = []commonModels.Match{}
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSearchResponse(strings.TrimSpace(req.Question), matches))
}

// PostIngestHandler godoc
// @Summary      Upload a document for ingestion
// @Description  Receives a pdf, docx, rtf, odt, txt or md file via multipart/form-data, stores it temporarily and queues an ingestion job. Chunks are indexed under "<document_name>/doc-N".
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_name  formData  string  true  "The display name of the document"
// @Param        document       formData  file    true  "The file to upload"
// @Success      202  {object}  api.InitJobResponse "Accepted - returns job id"
// @Failure      400  {object}  api.JobResponse "Bad Request - Missing fields, unsupported type or file too large"
// @Failure      500  {object}  api.JobResponse "Internal Server Error - Storage or Write Error"
// @Router       /ingest [post]
func (h *Handler) PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	log := logRH.WithTrace(r.Context())

	targetDir, err := getTargetDirectory(h.uploadDir)
	if err != nil {
		log.Error("Couldn't get target directory", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "", "Storage Error")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}

	docName := strings.TrimSpace(r.FormValue("document_name"))
	if docName == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "document_name is required")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, docName, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	if commonModels.GetDocType(fileMetadata.Filename) == commonModels.ERR {
		WriteErrorResponse(w, http.StatusBadRequest, docName, "Unsupported file type")
		return
	}

	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(fileMetadata.Filename))
	tempFilePath := filepath.Join(targetDir, filename)
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, docName, "Storage error")
		return
	}
	defer destinationFileWriter.Close()

	if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
		_ = os.Remove(tempFilePath)
		WriteErrorResponse(w, http.StatusInternalServerError, docName, "Write error")
		return
	}

	newJob := newJobData{
		id:               newJobID(),
		traceId:          traceID(r.Context()),
		isDocumentIngest: true,
		documentName:     docName,
		documentSource:   tempFilePath,
	}
	h.createNewJob(r.Context(), newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}
