package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gomatch/domain/balance"
	"gomatch/domain/core"
	"gomatch/domain/match"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMatch runs the full pipeline on an inline dataset and returns
// the result. When a repository is configured the result is persisted
// before responding.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ds, err := match.NewDataset(req.Units, req.Covariates)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Match(r.Context(), ds, req.Formula.Build(ds), req.Config)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	if req.Sort != "" && req.Sort != balance.SortInput {
		result.Balance = s.service.SortedBalance(result, req.Sort)
	}

	if s.repo != nil {
		if err := s.repo.Save(r.Context(), result); err != nil {
			s.logger.Warn("failed to persist result %s: %v", result.ID, err)
		}
	}

	writeJSON(w, http.StatusOK, MatchResponse{Result: result})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusNotFound, "result storage not configured")
		return
	}
	id, err := core.ParseResultID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid result ID")
		return
	}
	result, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, MatchResponse{Result: result})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusNotFound, "result storage not configured")
		return
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	results, err := s.repo.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ListResponse{Results: results, Limit: limit, Offset: offset})
}

func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		writeError(w, http.StatusNotFound, "result storage not configured")
		return
	}
	id, err := core.ParseResultID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid result ID")
		return
	}
	if err := s.repo.Delete(r.Context(), id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case core.IsConfigError(err),
		errors.Is(err, core.ErrMalformedDataset),
		errors.Is(err, core.ErrUnknownCovariate),
		errors.Is(err, core.ErrInsufficientData):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrResultNotFound):
		return http.StatusNotFound
	case core.IsModelFitError(err),
		core.IsSingularCovarianceError(err),
		core.IsNonconvergenceError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
