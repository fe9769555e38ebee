package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tomventa/mdsql/internal/database"
	"github.com/tomventa/mdsql/internal/extract"
	"github.com/tomventa/mdsql/internal/logger"
	"github.com/tomventa/mdsql/internal/render"
	"github.com/tomventa/mdsql/internal/types"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req types.QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorDetail{Detail: "invalid request body"})
		return
	}

	format, err := render.ParseFormat(req.ResponseFormat)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, types.ErrorDetail{Detail: err.Error()})
		return
	}

	res, err := s.runner.Run(r.Context(), req.MarkdownText, format)
	if err != nil {
		s.writeRunError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Envelope{Code: http.StatusOK, Message: "success", Data: res.Data})
}

func (s *Server) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		execErr *database.ExecutionError
		connErr *database.ConnectionError
	)
	switch {
	case errors.Is(err, extract.ErrNoStatement):
		writeJSON(w, http.StatusBadRequest, types.ErrorDetail{Detail: "No SQL query found in the input"})

	case errors.As(err, &execErr):
		data := types.ExecutionFailure{Error: execErr.Message, ExecutedQuery: execErr.Statement}
		if execErr.SQLState != "" {
			data.SQLState = &execErr.SQLState
		}
		if execErr.Code != 0 {
			data.Errno = &execErr.Code
		}
		writeEnvelopeError(w, http.StatusBadRequest, data)

	case errors.As(err, &connErr):
		writeEnvelopeError(w, http.StatusBadRequest, types.ConnectionFailure{
			Error:           "Database connection error: " + connErr.Err.Error(),
			ConnectionError: true,
		})

	default:
		logger.FromContext(r.Context()).Error().Err(err).Msg("query failed")
		writeEnvelopeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeEnvelopeError(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, types.Envelope{Code: code, Message: "error", Data: data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
