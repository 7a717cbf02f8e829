package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/cf"
	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/content"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/dataset"
	"github.com/rushteam/bookrec/engine"
	"github.com/rushteam/bookrec/feature"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/server"
	"github.com/rushteam/bookrec/store"
)

func main() {
	cfgPath := flag.String("config", "", "配置文件路径（可选，缺省用内置默认 + 环境变量）")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}

	logger := newLogger(cfg.Log.Level)

	// 启动期一次性构建所有只读存储，请求路径上不再有任何加载或写入。
	catalog := dataset.Load(cfg.Data.Dir)
	for table, st := range catalog.Status() {
		logger.Info().Str("table", table).Bool("loaded", st.Loaded).Int("rows", st.Rows).Msg("dataset table")
	}

	ids := catalog.CorpusIDs()
	texts := make([]string, len(ids))
	for i, id := range ids {
		if b, ok := catalog.Book(id); ok {
			texts[i] = b.TagText
		}
	}
	index := content.Build(ids, texts)
	logger.Info().Int("corpus", index.Len()).Msg("content index built")

	var adapter *cf.Adapter
	if model, err := cf.LoadModel(cfg.Data.ModelPath); err != nil {
		logger.Warn().Err(err).Str("path", cfg.Data.ModelPath).Msg("cf model unavailable")
	} else {
		adapter = cf.NewAdapter(model)
		logger.Info().Int("users", len(model.UserIndex)).Int("items", len(model.ItemIndex)).Msg("cf model loaded")
	}

	var rules []filter.Filter
	for _, expr := range cfg.Rules {
		rule, err := filter.NewRuleFilter(expr)
		if err != nil {
			logger.Fatal().Err(err).Str("rule", expr).Msg("compile rule")
		}
		rules = append(rules, rule)
	}

	var prefs feature.Provider
	if cfg.Feast.Enabled {
		fp, err := feature.NewFeastProvider(cfg.Feast.Host, cfg.Feast.Port,
			cfg.Feast.Project, cfg.Feast.EntityKey, cfg.Feast.Feature)
		if err != nil {
			logger.Warn().Err(err).Msg("feast unavailable, profile recommend disabled")
		} else {
			prefs = fp
			defer fp.Close()
		}
	}

	eng := engine.New(engine.Params{
		Catalog: catalog,
		Index:   index,
		Adapter: adapter,
		Rules:   rules,
		Prefs:   prefs,
		Logger:  logger,
	})

	var cache core.Store
	switch cfg.Cache.Backend {
	case "memory":
		cache = store.NewMemoryStore()
	case "redis":
		rs, err := store.NewRedisStore(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect redis")
		}
		cache = rs
	}
	if cache != nil {
		defer cache.Close()
		logger.Info().Str("backend", cache.Name()).Msg("result cache enabled")
	}

	srv := server.New(eng, cache, cfg, logger)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
