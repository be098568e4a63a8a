// Package api serves the analysis flows over HTTP as server-sent events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/logger"
	"comment-insights-go/internal/pipeline"
	"comment-insights-go/internal/processor"
	"comment-insights-go/internal/source"
	"comment-insights-go/internal/store"
	"comment-insights-go/internal/types"
)

const defaultLimit = 10

// Flows is the processor as seen by the handlers.
type Flows interface {
	ProcessArticle(ctx context.Context, articleURL string, sink pipeline.Sink) (*processor.Run, error)
	ProcessKeyword(ctx context.Context, keyword string, limit int, sink pipeline.Sink) (*processor.Run, error)
	ProcessSection(ctx context.Context, sectionURL string, limit int, sink pipeline.Sink) (*processor.Run, error)
}

// Runs is the run history; nil disables the /runs endpoints.
type Runs interface {
	Get(ctx context.Context, id string) (*processor.Run, error)
	List(ctx context.Context, limit int) ([]store.Summary, error)
}

type Server struct {
	flows Flows
	runs  Runs
	log   *logger.Logger
}

func NewServer(flows Flows, runs Runs, log *logger.Logger) *Server {
	return &Server{flows: flows, runs: runs, log: log}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("GET /analyze", s.analyzeArticle)
	mux.HandleFunc("GET /analyze-keyword", s.analyzeKeyword)
	mux.HandleFunc("GET /analyze-section", s.analyzeSection)
	mux.HandleFunc("GET /runs", s.listRuns)
	mux.HandleFunc("GET /runs/{id}", s.getRun)
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.log.WithRequest(r).Debug("health check")
	fmt.Fprint(w, "ok")
}

func (s *Server) analyzeArticle(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "analyze")
	u := strings.TrimSpace(r.URL.Query().Get("url"))
	switch {
	case u == "":
		s.reject(w, reqLog, "No URL provided")
		return
	case !isGuardianURL(u):
		s.reject(w, reqLog, "Please provide a Guardian article URL")
		return
	}
	s.stream(w, r, reqLog.WithField("url", u), func(ctx context.Context, sink pipeline.Sink) error {
		_, err := s.flows.ProcessArticle(ctx, u, sink)
		return err
	})
}

func (s *Server) analyzeKeyword(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "analyze-keyword")
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		s.reject(w, reqLog, "No keyword provided")
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"))
	s.stream(w, r, reqLog.WithFields(logrus.Fields{"keyword": keyword, "limit": limit}), func(ctx context.Context, sink pipeline.Sink) error {
		_, err := s.flows.ProcessKeyword(ctx, keyword, limit, sink)
		return err
	})
}

func (s *Server) analyzeSection(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "analyze-section")
	u := strings.TrimSpace(r.URL.Query().Get("url"))
	switch {
	case u == "":
		s.reject(w, reqLog, "No section URL provided")
		return
	case !isGuardianURL(u):
		s.reject(w, reqLog, "Please provide a Guardian section URL")
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"))
	s.stream(w, r, reqLog.WithFields(logrus.Fields{"url": u, "limit": limit}), func(ctx context.Context, sink pipeline.Sink) error {
		_, err := s.flows.ProcessSection(ctx, u, limit, sink)
		return err
	})
}

// stream runs flow with an event stream as its sink. Events are queued so a
// slow client never holds up the flow.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, reqLog *logrus.Entry, flow func(context.Context, pipeline.Sink) error) {
	reqLog.Info("analysis request received")
	sink := pipeline.NewAsyncSink(newSSEWriter(w, reqLog))
	err := flow(r.Context(), sink)
	sink.Close()
	if err != nil {
		reqLog.WithError(err).Warn("analysis request failed")
		return
	}
	reqLog.Info("analysis request finished")
}

// reject answers a bad request with a single error event, the way the
// browser client expects.
func (s *Server) reject(w http.ResponseWriter, reqLog *logrus.Entry, msg string) {
	reqLog.WithField("reason", msg).Warn("rejected request")
	newSSEWriter(w, reqLog).Emit(types.Failure(msg))
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "runs")
	if s.runs == nil {
		http.Error(w, "run history disabled", http.StatusNotFound)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := s.runs.List(r.Context(), limit)
	if err != nil {
		reqLog.WithError(err).Error("list runs failed")
		http.Error(w, "could not list runs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, reqLog, list)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "run")
	if s.runs == nil {
		http.Error(w, "run history disabled", http.StatusNotFound)
		return
	}
	run, err := s.runs.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		reqLog.WithError(err).Error("get run failed")
		http.Error(w, "could not load run", http.StatusInternalServerError)
		return
	}
	writeJSON(w, reqLog, run)
}

func writeJSON(w http.ResponseWriter, reqLog *logrus.Entry, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		reqLog.WithError(err).Error("failed to write response")
	}
}

func isGuardianURL(u string) bool {
	return strings.Contains(u, "theguardian.com")
}

// parseLimit reads the article limit, defaulting to 10 and clamped to 1..20.
func parseLimit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultLimit
	}
	return source.ClampLimit(n)
}
