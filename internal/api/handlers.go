package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/pipeline"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// handleSearch accepts query parameters on GET and a JSON body on POST.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		q := r.URL.Query()
		req = pipeline.Request{
			Term:   q.Get("query"),
			Source: model.Source(q.Get("source")),
			User:   q.Get("user"),
		}
	}
	req.Source = model.Source(strings.ToLower(strings.TrimSpace(string(req.Source))))
	req.User = strings.TrimSpace(req.User)

	resp, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		respondError(w, searchStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func searchStatus(err error) int {
	switch pipeline.Failure(err) {
	case pipeline.FailureInvalid:
		return http.StatusBadRequest
	case pipeline.FailureUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, defaultListLimit)
	q := r.URL.Query()

	listings, err := s.store.All(r.Context(), model.ListQuery{
		Source:     model.Source(q.Get("source")),
		SearchTerm: q.Get("term"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		s.logger.Error("listing query failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to fetch listings")
		return
	}
	total, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("listing count failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to count listings")
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  listings,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources := s.sources.Sources()
	if sources == nil {
		sources = []model.Source{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"sources": sources})
}

func parsePagination(r *http.Request, defaultLimit int) (int, int) {
	q := r.URL.Query()
	limit := defaultLimit
	offset := 0

	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
