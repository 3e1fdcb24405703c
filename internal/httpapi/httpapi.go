// Package httpapi serves the taskgen service API as JSON over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mindsurve/taskgen/pkg/logger"
	"github.com/mindsurve/taskgen/pkg/server"
	"github.com/mindsurve/taskgen/pkg/server/commands"
	serverErrors "github.com/mindsurve/taskgen/pkg/server/errors"
)

// maxRequestBodyBytes caps API request bodies. A posted matrix for the
// largest supported study runs to roughly 150MB of JSON.
const maxRequestBodyBytes = 256 << 20

// API translates HTTP requests into server operations and server
// errors into the wire error shape.
type API struct {
	server *server.Server
	logger logger.Logger
}

// New returns an API bound to the given server.
func New(srv *server.Server, l logger.Logger) *API {
	return &API{
		server: srv,
		logger: l,
	}
}

// Handler returns the API route table.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/generate-tasks", a.generateTasks)
	mux.HandleFunc("POST /api/plan", a.planDesign)
	mux.HandleFunc("POST /api/validate-matrix", a.validateMatrix)
	mux.HandleFunc("POST /api/studies", a.createStudy)
	mux.HandleFunc("GET /api/studies", a.listStudies)
	mux.HandleFunc("GET /api/studies/{study_id}", a.getStudy)
	mux.HandleFunc("DELETE /api/studies/{study_id}", a.deleteStudy)
	mux.HandleFunc("GET /api/studies/{study_id}/matrix", a.getStudyMatrix)
	mux.HandleFunc("GET /healthz", a.healthz)

	return mux
}

func (a *API) generateTasks(w http.ResponseWriter, r *http.Request) {
	var req commands.GenerateTasksRequest
	if !a.decode(w, r, &req) {
		return
	}

	resp, err := a.server.GenerateTasks(r.Context(), &req)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) planDesign(w http.ResponseWriter, r *http.Request) {
	var req commands.PlanDesignRequest
	if !a.decode(w, r, &req) {
		return
	}

	resp, err := a.server.PlanDesign(r.Context(), &req)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) validateMatrix(w http.ResponseWriter, r *http.Request) {
	var req commands.ValidateMatrixRequest
	if !a.decode(w, r, &req) {
		return
	}

	resp, err := a.server.ValidateMatrix(r.Context(), &req)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) createStudy(w http.ResponseWriter, r *http.Request) {
	var req commands.CreateStudyRequest
	if !a.decode(w, r, &req) {
		return
	}

	resp, err := a.server.CreateStudy(r.Context(), &req)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, resp)
}

func (a *API) listStudies(w http.ResponseWriter, r *http.Request) {
	req := commands.ListStudiesRequest{
		ContinuationToken: r.URL.Query().Get("continuation_token"),
	}

	if raw := r.URL.Query().Get("page_size"); raw != "" {
		pageSize, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || pageSize < 1 {
			a.writeError(r.Context(), w, serverErrors.NewInvalidRequestError(
				fmt.Errorf("query parameter 'page_size' must be a positive integer"),
			))
			return
		}
		req.PageSize = int32(pageSize)
	}

	resp, err := a.server.ListStudies(r.Context(), &req)
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) getStudy(w http.ResponseWriter, r *http.Request) {
	resp, err := a.server.GetStudy(r.Context(), &commands.GetStudyRequest{
		StudyID: r.PathValue("study_id"),
	})
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) deleteStudy(w http.ResponseWriter, r *http.Request) {
	_, err := a.server.DeleteStudy(r.Context(), &commands.DeleteStudyRequest{
		StudyID: r.PathValue("study_id"),
	})
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) getStudyMatrix(w http.ResponseWriter, r *http.Request) {
	resp, err := a.server.GetStudyMatrix(r.Context(), &commands.GetStudyMatrixRequest{
		StudyID: r.PathValue("study_id"),
	})
	if err != nil {
		a.writeError(r.Context(), w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resp)
}

type healthBody struct {
	Status string `json:"status"`
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	ready, err := a.server.IsReady(r.Context())
	if err != nil {
		a.logger.ErrorWithContext(r.Context(), "readiness probe failed", zap.Error(err))
	}
	if err != nil || !ready {
		a.writeJSON(w, http.StatusServiceUnavailable, healthBody{Status: "NOT_SERVING"})
		return
	}
	a.writeJSON(w, http.StatusOK, healthBody{Status: "SERVING"})
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.writeError(r.Context(), w, serverErrors.NewInvalidRequestError(
			fmt.Errorf("invalid JSON body: %w", err),
		))
		return false
	}
	return true
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *API) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var apiErr *serverErrors.APIError
	if !errors.As(err, &apiErr) {
		apiErr = serverErrors.NewInternalError("", err)
	}

	// Internal causes are logged here and never serialized.
	if internal := apiErr.Internal(); internal != nil && apiErr.HTTPStatusCode() >= http.StatusInternalServerError {
		a.logger.ErrorWithContext(ctx, "request failed", zap.Error(internal))
	}

	a.writeJSON(w, apiErr.HTTPStatusCode(), errorBody{
		Code:    apiErr.CodeString(),
		Message: apiErr.Error(),
	})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("failed to encode response body", zap.Error(err))
	}
}
