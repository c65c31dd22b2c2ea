package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"

	"github.com/peoplekit/peoplekit/core"
	"github.com/peoplekit/peoplekit/modules/tenants"
	"github.com/peoplekit/peoplekit/pkg/config"
	"github.com/peoplekit/peoplekit/pkg/httpserver"
	"github.com/peoplekit/peoplekit/pkg/logger"
	"github.com/peoplekit/peoplekit/pkg/pg"
	"github.com/peoplekit/peoplekit/pkg/provision"
	"github.com/peoplekit/peoplekit/pkg/redis"
	"github.com/peoplekit/peoplekit/pkg/requestid"
	"github.com/peoplekit/peoplekit/pkg/tenant"
	"github.com/peoplekit/peoplekit/pkg/tenantdb"
)

type appConfig struct {
	TenantHeader string        `env:"TENANT_HEADER" envDefault:"X-Tenant-ID"` // TenantHeader names the header carrying the tenant identifier.
	TenantCache  time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`       // TenantCache is how long resolved tenants stay cached.
	OperatorTOTP string        `env:"OPERATOR_TOTP_SECRET,required"`          // OperatorTOTP is the shared secret confirming destructive operations.
}

func main() {
	ctx := context.Background()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.New(append(
		logger.FromConfig(logCfg),
		logger.WithContextExtractors(tenant.LoggerExtractor(), requestid.LoggerExtractor()),
	)...)
	logger.SetAsDefault(log)

	if err := run(ctx, log); err != nil {
		log.ErrorContext(ctx, "server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		appCfg appConfig
		pgCfg  pg.Config
		dbCfg  tenantdb.Config
		rdCfg  redis.Config
		srvCfg httpserver.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&dbCfg)
	config.MustLoad(&rdCfg)
	config.MustLoad(&srvCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	db := tenantdb.NewExecutor(
		tenantdb.NewPgxPool(pool),
		tenantdb.WithAcquireTimeout(dbCfg.AcquireTimeout),
		tenantdb.WithLogger(log),
	)
	registry := tenant.NewRegistry(db)
	lifecycle := provision.NewManager(db, registry, appCfg.OperatorTOTP,
		provision.WithLogger(log))

	// The tenant cache is shared across replicas when Redis is configured
	// and process-local otherwise.
	var cache tenant.Cache
	healthchecks := []func(context.Context) error{pg.Healthcheck(pool)}
	if rdCfg.Enabled() {
		redisClient, err := redis.Connect(ctx, rdCfg)
		if err != nil {
			return err
		}
		cache = tenant.NewRedisCache(redisClient, "tenant")
		healthchecks = append(healthchecks, redis.Healthcheck(redisClient))
	} else {
		cache = tenant.NewInMemoryCache()
	}
	defer cache.Close()

	resolver := tenant.NewHeaderResolver(appCfg.TenantHeader)
	admin := tenants.NewHandler(registry, lifecycle)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)

	r.Get("/health", httpserver.HealthCheckHandler(ctx, log, healthchecks...))
	r.Mount("/admin/tenants", admin.Router())

	// Everything under /api runs inside a tenant scope; the middleware
	// rejects requests with a missing, unknown, or inactive tenant before
	// any handler sees them.
	r.Route("/api", func(api chi.Router) {
		api.Use(tenant.Middleware(resolver, registry,
			tenant.WithCache(cache),
			tenant.WithCacheTTL(appCfg.TenantCache),
			tenant.WithErrorHandler(tenants.ErrorHandler),
			tenant.WithLogger(log),
		))
		api.Use(tenant.RequireTenant(tenants.ErrorHandler))

		api.Get("/employees", listEmployees(db))
	})

	srv := httpserver.New(
		httpserver.WithConfig(srvCfg),
		httpserver.WithLogger(log),
		httpserver.WithStopHook(func(l *slog.Logger) {
			l.Info("draining database pool")
			db.Close()
		}),
	)
	return srv.Run(ctx, r)
}

// listEmployees reads from the employees table of whichever tenant is in
// scope. It exists to exercise the scoped query path end to end; real
// business modules follow the same shape.
func listEmployees(db *tenantdb.Executor) http.HandlerFunc {
	type employee struct {
		ID        string `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Position  string `json:"position"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var result []employee
		err := db.QueryRows(r.Context(),
			"SELECT id, first_name, last_name, position FROM employees ORDER BY last_name, first_name",
			nil,
			func(rows pgx.Rows) error {
				for rows.Next() {
					var e employee
					if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Position); err != nil {
						return err
					}
					result = append(result, e)
				}
				return rows.Err()
			})
		if err != nil {
			core.Render(w, r, tenants.MapError(err))
			return
		}
		if result == nil {
			result = []employee{}
		}
		core.Render(w, r, core.JSON(result))
	}
}
