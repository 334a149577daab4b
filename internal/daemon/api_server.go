package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"reviewd/internal/api"
	"reviewd/internal/config"
	"reviewd/internal/engine"
	"reviewd/internal/logging"
	"reviewd/internal/queues"
	"reviewd/internal/review"
)

const notFoundMessage = "not found"

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	auth   *authenticator

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logger,
		daemon: d,
		auth:   newAuthenticator(cfg.Principals),
	}

	r := chi.NewRouter()
	r.Use(srv.requestID)
	r.Get("/api/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(srv.authenticate)
		r.Get("/api/queues", srv.handleQueueList)
		r.Delete("/api/reviews/{id}", srv.handleVerdictDelete)

		r.Route("/api/queues/{queue}", func(r chi.Router) {
			r.Use(srv.requireQueue)
			r.Get("/next", srv.handleNext)
			r.Post("/items", srv.handleEnqueue)
			r.Get("/items/{id}", srv.handleItem)
			r.Post("/submit", srv.handleSubmit)
			r.Post("/recheck", srv.handleRecheck)
			r.Get("/reviews", srv.handleReviews)
		})
	})

	srv.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// requestID tags every request with a correlation id, echoed in the response.
func (s *apiServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// authenticate resolves the bearer token. Unknown callers get the same 404 an
// unknown resource would, so tokens cannot be probed.
func (s *apiServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := s.auth.identify(r)
		if p == nil {
			s.writeNotFound(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}

// requireQueue resolves the {queue} URL param and checks the caller's
// privilege for it. Unknown queue and missing privilege are indistinguishable.
func (s *apiServer) requireQueue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q, ok := s.daemon.registry.Find(chi.URLParam(r, "queue"))
		if !ok || !principalFrom(r.Context()).canWork(q) {
			s.writeNotFound(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(withQueue(r.Context(), q)))
	})
}

type queueKey struct{}

func withQueue(ctx context.Context, q *queues.Queue) context.Context {
	return context.WithValue(ctx, queueKey{}, q)
}

func queueFrom(ctx context.Context) *queues.Queue {
	q, _ := ctx.Value(queueKey{}).(*queues.Queue)
	return q
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload, err := s.daemon.queueSvc.Health(r.Context())
	if err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, payload)
		return
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleQueueList(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.daemon.queueSvc.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueListResponse{Queues: summaries})
}

func (s *apiServer) handleNext(w http.ResponseWriter, r *http.Request) {
	q := queueFrom(r.Context())
	caller := principalFrom(r.Context())

	item, err := s.daemon.selector.Next(r.Context(), q, caller.name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Clients poll this endpoint; responses must never be cached.
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")

	if item == nil {
		s.writeJSON(w, http.StatusOK, api.NextItemResponse{Status: "exhausted"})
		return
	}
	converted := api.FromItem(item)
	s.writeJSON(w, http.StatusOK, api.NextItemResponse{Status: "ok", Item: &converted})
}

func (s *apiServer) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	q := queueFrom(r.Context())

	var req api.EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.SubjectType = strings.TrimSpace(req.SubjectType)
	req.SubjectID = strings.TrimSpace(req.SubjectID)
	if req.SubjectType == "" || req.SubjectID == "" {
		s.writeError(w, http.StatusBadRequest, "subjectType and subjectId are required")
		return
	}

	item, err := s.daemon.store.AddItem(r.Context(), q.Name, req.SubjectType, req.SubjectID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log().Info("review item enqueued",
		slog.String(logging.FieldQueue, q.Name),
		slog.Int64(logging.FieldItemID, item.ID),
		slog.String(logging.FieldSubject, req.SubjectType+"/"+req.SubjectID))
	s.writeJSON(w, http.StatusCreated, api.FromItem(item))
}

func (s *apiServer) handleItem(w http.ResponseWriter, r *http.Request) {
	q := queueFrom(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeNotFound(w)
		return
	}
	item, err := s.daemon.queueSvc.Item(r.Context(), q, id)
	if errors.Is(err, review.ErrNotFound) {
		s.writeNotFound(w)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	q := queueFrom(r.Context())
	caller := principalFrom(r.Context())

	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.daemon.recorder.Submit(r.Context(), q, req.ItemID, caller.name, req.Response)
	switch {
	case errors.Is(err, engine.ErrInvalidResponse):
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("response %q is not allowed on queue %q", req.Response, q.Name))
		return
	case errors.Is(err, engine.ErrDuplicate):
		s.writeJSON(w, http.StatusConflict, api.ErrorResponse{Status: "duplicate", Error: "item already has an effective verdict"})
		return
	case errors.Is(err, review.ErrNotFound):
		s.writeNotFound(w)
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, api.SubmitResponse{
		Status:       "ok",
		Disqualified: result.Disqualified,
		Warning:      result.HookWarning,
	})
}

func (s *apiServer) handleRecheck(w http.ResponseWriter, r *http.Request) {
	q := queueFrom(r.Context())
	if !principalFrom(r.Context()).hasRole("developer") {
		s.writeNotFound(w)
		return
	}

	runID := s.daemon.sweeper.Trigger(context.WithoutCancel(r.Context()), q)
	s.log().Info("queue recheck requested",
		slog.String(logging.FieldQueue, q.Name),
		slog.String(logging.FieldRunID, runID),
		slog.String(logging.FieldRequestID, requestIDFrom(r.Context())))
	s.writeJSON(w, http.StatusAccepted, api.RecheckResponse{Status: "accepted", RequestID: runID})
}

func (s *apiServer) handleReviews(w http.ResponseWriter, r *http.Request) {
	q := queueFrom(r.Context())
	query := r.URL.Query()

	histQuery := api.HistoryQuery{
		Reviewer: strings.TrimSpace(query.Get("user")),
		Response: strings.TrimSpace(query.Get("response")),
	}
	if query.Get("mine") == "1" {
		histQuery.Reviewer = principalFrom(r.Context()).name
	}
	if page, err := strconv.Atoi(query.Get("page")); err == nil {
		histQuery.Page = page
	}

	payload, err := s.daemon.historySvc.Page(r.Context(), q, histQuery)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleVerdictDelete(w http.ResponseWriter, r *http.Request) {
	if !principalFrom(r.Context()).hasRole("admin") {
		s.writeNotFound(w)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeNotFound(w)
		return
	}
	if err := s.daemon.historySvc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, review.ErrNotFound) {
			s.writeNotFound(w)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Status: "error", Error: message})
}

// writeNotFound is the uniform response for unknown resources, unknown
// callers, and privilege failures alike.
func (s *apiServer) writeNotFound(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusNotFound, api.ErrorResponse{Status: "error", Error: notFoundMessage})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(slog.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
