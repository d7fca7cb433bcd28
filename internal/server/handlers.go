package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/store"
	"github.com/ppiankov/credence/internal/worker"
)

// AnalyzeRequest is the body of POST /v1/analyze
type AnalyzeRequest struct {
	ID     string `json:"id,omitempty"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	Title  string `json:"title,omitempty"`
}

// BatchRequest is the body of POST /v1/analyze/batch
type BatchRequest struct {
	Articles []AnalyzeRequest `json:"articles"`
}

// BatchItem is one entry of a batch response
type BatchItem struct {
	Index  int           `json:"index"`
	ID     string        `json:"id"`
	Status int           `json:"status"`
	Report *model.Report `json:"report,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// BatchResponse is the body returned by POST /v1/analyze/batch
type BatchResponse struct {
	Results   []BatchItem `json:"results"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ArticleID string `json:"article_id,omitempty"`
}

func (req AnalyzeRequest) article() model.Article {
	return model.Article{
		ID:     req.ID,
		Text:   req.Text,
		Source: req.Source,
		Title:  req.Title,
	}.EnsureID()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "analyzer not loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "ready",
		"fingerprint": s.pipeline.Analyzer().Fingerprint(),
	})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Analyzer().ModelInfo())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if status, err := decodeJSON(r, &req); err != nil {
		writeError(w, status, err.Error())
		return
	}

	report, err := s.pipeline.AnalyzeArticle(r.Context(), req.article())
	if err != nil {
		status := statusFor(err)
		if status >= 500 {
			s.logger.Error("analysis failed", zap.Error(err))
		}
		resp := errorResponse{Error: err.Error()}
		var analysisErr *model.AnalysisError
		if errors.As(err, &analysisErr) {
			resp.ArticleID = analysisErr.ArticleID
		}
		writeJSON(w, status, resp)
		return
	}

	s.archiveReport(r, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if status, err := decodeJSON(r, &req); err != nil {
		writeError(w, status, err.Error())
		return
	}
	if len(req.Articles) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no articles in batch")
		return
	}
	if len(req.Articles) > s.cfg.MaxBatch {
		writeError(w, http.StatusRequestEntityTooLarge,
			"batch too large: "+strconv.Itoa(len(req.Articles))+" articles (limit "+strconv.Itoa(s.cfg.MaxBatch)+")")
		return
	}

	tasks := make([]worker.Task, len(req.Articles))
	for i, a := range req.Articles {
		tasks[i] = worker.Task{Article: a.article()}
	}

	results := worker.NewBatchProcessor(s.pipeline, s.workers).Process(r.Context(), tasks)

	resp := BatchResponse{Results: make([]BatchItem, len(results))}
	for i, res := range results {
		item := BatchItem{Index: i, ID: res.Task.Article.ID, Status: http.StatusOK}
		if res.Error != nil {
			item.Status = statusFor(res.Error)
			item.Error = res.Error.Error()
			resp.Failed++
		} else {
			item.Report = res.Report
			s.archiveReport(r, res.Report)
			resp.Succeeded++
		}
		resp.Results[i] = item
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "archive disabled")
		return
	}

	filter := store.Filter{
		Classification: model.Classification(r.URL.Query().Get("classification")),
		Source:         r.URL.Query().Get("source"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	entries, err := s.archive.Recent(r.Context(), filter)
	if err != nil {
		s.logger.Error("list reports failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list reports failed")
		return
	}
	reports := make([]*model.Report, len(entries))
	for i, e := range entries {
		reports[i] = e.Report
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "archive disabled")
		return
	}

	entry, err := s.archive.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("get report failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get report failed")
		return
	}
	writeJSON(w, http.StatusOK, entry.Report)
}

func (s *Server) archiveReport(r *http.Request, report *model.Report) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Save(r.Context(), report); err != nil {
		s.logger.Warn("archive failed", zap.String("article_id", report.ArticleID), zap.Error(err))
	}
}

// statusClientClosedRequest reports a request the client abandoned before analysis finished
const statusClientClosedRequest = 499

// statusFor maps analysis errors onto HTTP status codes. Schema mismatches
// and anything unrecognised are server faults and fall through to 500.
func statusFor(err error) int {
	var (
		empty    *model.EmptyInputError
		tooLarge *model.InputTooLargeError
	)
	switch {
	case errors.As(err, &empty):
		return http.StatusUnprocessableEntity
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) (int, error) {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return http.StatusRequestEntityTooLarge, errors.New("request body too large")
		}
		return http.StatusBadRequest, errors.New("invalid JSON: " + err.Error())
	}
	return http.StatusOK, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
