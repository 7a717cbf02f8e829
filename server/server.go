// Package server 是传输层薄胶水：路由、请求校验、错误映射、结果缓存。
// 排序逻辑全部在 engine 包，这里只做进出参的搬运。
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/engine"
)

// Server 持有引擎与可选的结果缓存。
type Server struct {
	engine   *engine.Engine
	cache    core.Store // nil 表示不缓存
	cacheTTL int
	cascade  config.CascadeConfig
	log      zerolog.Logger
	router   chi.Router
}

func New(eng *engine.Engine, cache core.Store, cfg *config.Config, logger zerolog.Logger) *Server {
	s := &Server{
		engine:   eng,
		cache:    cache,
		cacheTTL: cfg.Cache.TTL,
		cascade:  cfg.Cascade,
		log:      logger.With().Str("component", "server").Logger(),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observe)

	r.Get("/dataset_health", s.handleDatasetHealth)
	r.Post("/predict", s.handlePredict)
	r.Post("/top_n", s.handleTopN)
	r.Post("/top_n_hybrid", s.handleTopNHybrid)
	r.Post("/top_n_cf", s.handleTopNCF)
	r.Post("/profile_recommend", s.handleProfileRecommend)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router = r
	return s
}

// Handler 返回根 http.Handler。
func (s *Server) Handler() http.Handler { return s.router }

// observe 是日志 + 指标中间件。
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := r.URL.Path
		requestsTotal.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		s.log.Info().
			Str("method", r.Method).
			Str("path", route).
			Int("status", ww.Status()).
			Dur("elapsed", elapsed).
			Msg("request")
	})
}

// writeJSON 序列化响应。编码失败只能记日志，头已经发出。
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

// errorBody 是结构化错误响应。
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeError 把领域错误映射为结构化 HTTP 错误。
// 级联内部的降级（空种子集等）不会走到这里 —— 它们不是错误。
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := core.ErrorCodeInternal
	msg := "internal error"

	if domainErr := core.GetDomainError(err); domainErr != nil {
		code = domainErr.Code
		msg = domainErr.Message
		switch domainErr.Code {
		case core.ErrorCodeUnknownBook, core.ErrorCodeNotFound:
			status = http.StatusNotFound
		case core.ErrorCodeInvalidInput:
			status = http.StatusBadRequest
		case core.ErrorCodeUnavailable:
			status = http.StatusServiceUnavailable
		}
	} else if err != nil {
		msg = err.Error()
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = msg
	s.writeJSON(w, status, body)
}

// decode 解析 JSON 请求体。
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"invalid request body: "+err.Error()))
		return false
	}
	return true
}
