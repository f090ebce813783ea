package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newslynx/recipes/internal/cache"
	"github.com/newslynx/recipes/internal/cli/config"
	"github.com/newslynx/recipes/internal/store"
	"github.com/newslynx/recipes/internal/validation"
	"github.com/newslynx/recipes/internal/web/api"
	"github.com/newslynx/recipes/internal/web/auth"
	"github.com/newslynx/recipes/internal/web/server"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var (
		port    int
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recipes HTTP API",
		Long: `Start the HTTP API configured by recipes.yaml.

Without auth.jwt_secret every request acts for organization 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.loadConfig(false)
			if err != nil {
				return err
			}
			defer log.Sync()
			if port != 0 {
				cfg.Server.Port = port
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return serve(ctx, cfg, log, migrate)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func newSousChefCache(ctx context.Context, cfg *config.Config) (cache.Cache, func() error, error) {
	cacheCfg := cache.Config{DefaultTTL: cfg.Cache.TTL, Prefix: cfg.Cache.Prefix}
	if cfg.Cache.Backend != "redis" {
		return cache.NewMemoryCache(cacheCfg), func() error { return nil }, nil
	}
	rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, cacheCfg)
	if err != nil {
		return nil, nil, err
	}
	return rc, rc.Close, nil
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger, migrate bool) error {
	st, err := store.Open(cfg.Database.Driver, cfg.DatabaseURL(), log)
	if err != nil {
		return &storeError{err}
	}
	if migrate {
		n, err := st.Migrate(ctx)
		if err != nil {
			st.Close()
			return &storeError{err}
		}
		log.Info("applied migrations", zap.Int("count", n))
	}

	backend, closeCache, err := newSousChefCache(ctx, cfg)
	if err != nil {
		st.Close()
		return fmt.Errorf("failed to connect to the cache: %w", err)
	}
	sousChefs := cache.NewSousChefs(backend, st.LoadSousChef, cfg.Cache.TTL, log)

	routerCfg := api.RouterConfig{Prefix: cfg.Server.APIPrefix, Logger: log}
	if cfg.Auth.JWTSecret != "" {
		routerCfg.Auth = auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	} else {
		log.Warn("auth.jwt_secret is empty; serving every request as the default organization",
			zap.Int64("org_id", api.DefaultOrgID))
	}
	handler := api.NewRouter(api.New(st, sousChefs, validation.NewEngine(), log), routerCfg)

	srvCfg := server.DefaultConfig(handler)
	srvCfg.Address = cfg.Server.Addr()
	srvCfg.Logger = log
	srv, err := server.New(srvCfg)
	if err != nil {
		closeCache()
		st.Close()
		return err
	}

	gs := server.NewGracefulShutdown(srv, &server.ShutdownConfig{Timeout: server.DefaultShutdownConfig().Timeout, Logger: log})
	gs.RegisterHook(func(context.Context) error { return closeCache() })
	gs.RegisterHook(func(context.Context) error { return st.Close() })
	return gs.Run(ctx)
}
