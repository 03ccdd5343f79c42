package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/meridianlabs/yubin/internal/format"
	"github.com/meridianlabs/yubin/internal/models"
	"github.com/meridianlabs/yubin/internal/tools"
)

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	s.logger.Debug("tool call request", zap.String("tool", name))
	result, err := s.dispatcher.Call(r.Context(), name, body)
	if err != nil {
		s.respondToolError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleToolList(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"tools": s.dispatcher.List()})
}

// handleSearch exposes the full query surface, including prefix matching
// and caller-chosen row caps the postal_code_search tool pins down.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.String("postalcode", query.PostalCode),
		zap.String("prefix", query.PostalCodePrefix))
	records, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.logger.Warn("search degraded", zap.Error(err))
		s.respondJSON(w, http.StatusOK, models.DegradedResponse(err))
		return
	}
	s.respondJSON(w, http.StatusOK, format.Records(records, query.Style))
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	args := map[string]interface{}{"postalCode": chi.URLParam(r, "code")}
	strParam(r, "style", "style", args)
	s.dispatch(w, r, tools.ToolGeocodePostal, args)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	args := map[string]interface{}{"postalCode": chi.URLParam(r, "code")}
	s.dispatch(w, r, tools.ToolValidatePostal, args)
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	args := map[string]interface{}{}
	if err := floatParam(r, "lat", "latitude", args); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := floatParam(r, "lng", "longitude", args); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := floatParam(r, "radius", "radius", args); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := intParam(r, "maxResults", "maxResults", args); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	strParam(r, "style", "style", args)
	s.dispatch(w, r, tools.ToolReverseGeocode, args)
}

func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	args := map[string]interface{}{}
	if err := floatParam(r, "lat", "latitude", args); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := floatParam(r, "lng", "longitude", args); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := intParam(r, "k", "k", args); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	strParam(r, "style", "style", args)
	s.dispatch(w, r, tools.ToolPostalNearest, args)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	args := map[string]interface{}{}
	strParam(r, "q", "placeName", args)
	if err := intParam(r, "limit", "maxResults", args); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.dispatch(w, r, tools.ToolPostalSuggest, args)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, tools.ToolPostalStats, map[string]interface{}{})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// dispatch marshals args and routes them through the tool dispatcher, so
// convenience routes return byte-identical bodies to the tool endpoint.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, tool string, args map[string]interface{}) {
	payload, err := json.Marshal(args)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	result, err := s.dispatcher.Call(r.Context(), tool, payload)
	if err != nil {
		s.respondToolError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) respondToolError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tools.ErrInvalidArgs):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// Query parameter helpers copy a typed value into args under the tool's
// argument name. Absent parameters are left out entirely so required
// argument checks happen in one place, the dispatcher.

func floatParam(r *http.Request, param, name string, args map[string]interface{}) error {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid %s parameter", param)
	}
	args[name] = v
	return nil
}

func intParam(r *http.Request, param, name string, args map[string]interface{}) error {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s parameter", param)
	}
	args[name] = v
	return nil
}

func strParam(r *http.Request, param, name string, args map[string]interface{}) {
	if raw := r.URL.Query().Get(param); raw != "" {
		args[name] = raw
	}
}
