package server

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
)

// 各接口的默认条数。级联的默认值来自配置。
const (
	defaultTopN   = 10
	defaultTopNCF = 5
)

func (s *Server) handleDatasetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.HealthReport())
}

type predictRequest struct {
	UserID int64 `json:"user_id"`
	BookID int64 `json:"book_id"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if !s.decode(w, r, &req) {
		return
	}
	pred, err := s.engine.PredictForPair(r.Context(), req.UserID, req.BookID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pred)
}

type topNRequest struct {
	N *int `json:"n"`
}

func (s *Server) handleTopN(w http.ResponseWriter, r *http.Request) {
	var req topNRequest
	if !s.decode(w, r, &req) {
		return
	}
	n := defaultTopN
	if req.N != nil {
		n = *req.N
	}
	users, err := s.engine.TopNByActivity(r.Context(), n)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type hybridRequest struct {
	UserID int64 `json:"user_id"`
	NCF    *int  `json:"n_cf"`
	NCB    *int  `json:"n_cb"`
}

type hybridResponse struct {
	UserID int64    `json:"user_id"`
	Titles []string `json:"titles"`
}

func (s *Server) handleTopNHybrid(w http.ResponseWriter, r *http.Request) {
	var req hybridRequest
	if !s.decode(w, r, &req) {
		return
	}
	nCF := s.cascade.DefaultNCF
	if req.NCF != nil {
		nCF = *req.NCF
	}
	nCB := s.cascade.DefaultNCB
	if req.NCB != nil {
		nCB = *req.NCB
	}

	cacheKey := fmt.Sprintf("hybrid:%d:%d:%d", req.UserID, nCF, nCB)
	if s.cache != nil {
		if raw, err := s.cache.Get(r.Context(), cacheKey); err == nil {
			var resp hybridResponse
			if json.Unmarshal(raw, &resp) == nil {
				cacheHitsTotal.Inc()
				s.writeJSON(w, http.StatusOK, &resp)
				return
			}
		} else if core.IsStoreNotFound(err) {
			cacheMissesTotal.Inc()
		} else {
			s.log.Warn().Err(err).Str("key", cacheKey).Msg("cache get")
		}
	}

	titles, err := s.engine.HybridCascade(r.Context(), req.UserID, nCF, nCB)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := &hybridResponse{UserID: req.UserID, Titles: titles}

	if s.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(r.Context(), cacheKey, raw, s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Str("key", cacheKey).Msg("cache set")
			}
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type userNRequest struct {
	UserID int64 `json:"user_id"`
	N      *int  `json:"n"`
}

func (s *Server) handleTopNCF(w http.ResponseWriter, r *http.Request) {
	var req userNRequest
	if !s.decode(w, r, &req) {
		return
	}
	n := defaultTopNCF
	if req.N != nil {
		n = *req.N
	}
	titles, err := s.engine.TopNCF(r.Context(), req.UserID, n)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, &hybridResponse{UserID: req.UserID, Titles: titles})
}

func (s *Server) handleProfileRecommend(w http.ResponseWriter, r *http.Request) {
	var req userNRequest
	if !s.decode(w, r, &req) {
		return
	}
	n := defaultTopNCF
	if req.N != nil {
		n = *req.N
	}
	titles, err := s.engine.RecommendByProfile(r.Context(), req.UserID, n)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, &hybridResponse{UserID: req.UserID, Titles: titles})
}
