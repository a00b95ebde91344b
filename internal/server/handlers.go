package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/sakuin/internal/engine"
	"github.com/hyperjump/sakuin/internal/indexer"
	"github.com/hyperjump/sakuin/internal/models"
	"github.com/hyperjump/sakuin/internal/schema"
	"github.com/hyperjump/sakuin/internal/search"
	"github.com/hyperjump/sakuin/internal/storage"
)

func (s *Server) service(w http.ResponseWriter, recordType string) *Service {
	svc, ok := s.services[recordType]
	if !ok {
		s.respondError(w, http.StatusNotFound, "unknown record type: "+recordType)
		return nil
	}
	return svc
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	svc := s.service(w, req.Type)
	if svc == nil {
		return
	}
	s.logger.Debug("search request",
		zap.String("type", req.Type), zap.String("query", req.Query), zap.Int("limit", req.Limit))

	start := time.Now()
	res, err := svc.Searcher.Search(search.Query{
		Text:     req.Query,
		Offset:   req.Offset,
		Limit:    req.Limit,
		OrderBy:  req.OrderBy,
		StemLang: req.Lang,
		Filter:   req.Filter,
		Exclude:  req.Exclude,
	})
	if err != nil {
		if errors.Is(err, search.ErrUnknownSortField) || errors.Is(err, search.ErrInvalidFilter) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := &models.SearchResponse{
		Matches:     s.matches(svc, res.Hits),
		Total:       res.Total,
		ParsedQuery: res.ParsedQuery,
		QueryTimeMS: time.Since(start).Milliseconds(),
	}
	if res.Total == 0 {
		if corrected, ok := svc.Searcher.Suggest(req.Query); ok {
			resp.Suggestion = corrected
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	var req models.RelatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type == "" || (req.Query == "" && len(req.UIDs) == 0) {
		s.respondError(w, http.StatusBadRequest, "type and a query or uids are required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}
	svc := s.service(w, req.Type)
	if svc == nil {
		return
	}

	// The relevance set is either the caller's explicit documents or the
	// seed query's top matches; its expansion runs as a fresh disjunctive
	// query.
	var expanded string
	if len(req.UIDs) > 0 {
		var err error
		expanded, err = svc.Searcher.RelatedByUID(req.UIDs)
		if err != nil {
			s.logger.Error("related expansion failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	} else {
		seed, err := svc.Searcher.Search(search.Query{Text: req.Query, Limit: 40})
		if err != nil {
			s.logger.Error("related seed search failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		expanded, err = svc.Searcher.Related(seed.Hits)
		if err != nil {
			s.logger.Error("related expansion failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	resp := &models.RelatedResponse{ExpandedQuery: expanded}
	if expanded != "" {
		res, err := svc.Searcher.Search(search.Query{Text: expanded, Offset: req.Offset, Limit: req.Limit})
		if err != nil {
			s.logger.Error("related search failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Matches = s.matches(svc, res.Hits)
		resp.Total = res.Total
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	var req models.ReindexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	targets := make(map[string]*Service)
	if req.Type == "" {
		for name, svc := range s.services {
			targets[name] = svc
		}
	} else {
		svc := s.service(w, req.Type)
		if svc == nil {
			return
		}
		targets[req.Type] = svc
	}

	results := make(map[string]indexer.UpdateStats, len(targets))
	for name, svc := range targets {
		s.logger.Info("reindexing", zap.String("type", name))
		stats, err := svc.Indexer.Update(r.Context(), nil, indexer.UpdateOptions{
			Transaction: req.Transaction,
			FlushEach:   req.FlushEach,
		})
		if err != nil {
			s.logger.Error("reindex failed", zap.String("type", name), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		results[name] = stats
	}
	s.respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleUpsertRecord(w http.ResponseWriter, r *http.Request) {
	recordType := chi.URLParam(r, "type")
	pk := chi.URLParam(r, "pk")
	if s.service(w, recordType) == nil {
		return
	}
	var attrs map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&attrs); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.UpsertRecord(r.Context(), recordType, pk, attrs); err != nil {
		s.logger.Error("upsert failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"type": recordType, "pk": pk, "status": "queued"})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	recordType := chi.URLParam(r, "type")
	pk := chi.URLParam(r, "pk")
	rec, err := s.store.GetRecord(r.Context(), recordType, pk)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{"type": recordType, "pk": pk}
	if sr, ok := rec.(*storage.StoredRecord); ok {
		resp["attrs"] = sr.Attrs()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	recordType := chi.URLParam(r, "type")
	pk := chi.URLParam(r, "pk")
	if s.service(w, recordType) == nil {
		return
	}
	s.logger.Debug("delete record request", zap.String("type", recordType), zap.String("pk", pk))
	if err := s.store.DeleteRecord(r.Context(), recordType, pk); err != nil {
		s.logger.Error("delete failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"type": recordType, "pk": pk, "status": "queued"})
}

func (s *Server) handleClearIndex(w http.ResponseWriter, r *http.Request) {
	recordType := chi.URLParam(r, "type")
	svc := s.service(w, recordType)
	if svc == nil {
		return
	}
	if err := svc.Indexer.Clear(); err != nil {
		s.logger.Error("clear failed", zap.String("type", recordType), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"type": recordType, "status": "cleared"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	statuses := make([]*models.IndexStatus, 0, len(s.services))
	for name, svc := range s.services {
		docs, err := svc.Indexer.DocumentCount()
		if err != nil {
			s.logger.Error("status: document count failed", zap.String("type", name), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		records, err := s.store.CountRecords(ctx, name)
		if err != nil {
			s.logger.Error("status: record count failed", zap.String("type", name), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		statuses = append(statuses, &models.IndexStatus{Type: name, Documents: docs, Records: records})
	}
	pending, err := s.store.CountChanges(ctx)
	if err != nil {
		s.logger.Error("status: change count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"indices":         statuses,
		"pending_changes": pending,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// matches converts engine hits into API results, decoding the metadata and
// tag value slots by name.
func (s *Server) matches(svc *Service, hits []*engine.Hit) []*models.MatchResult {
	sch := svc.Indexer.Schema()
	out := make([]*models.MatchResult, 0, len(hits))
	for _, h := range hits {
		m := &models.MatchResult{
			UID:        h.UID,
			PrimaryKey: h.Value(schema.SlotPrimaryKey),
			Type:       h.Value(schema.SlotTypeName),
			Score:      h.Score,
		}
		for _, tag := range sch.Tags() {
			if v := h.Value(tag.Slot); v != "" {
				if m.Values == nil {
					m.Values = make(map[string]string)
				}
				m.Values[tag.Prefix] = v
			}
		}
		out = append(out, m)
	}
	return out
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
