package router

import (
	"time"

	"distillery/internal/config"
	"distillery/internal/handler"
	"distillery/internal/infra"
	"distillery/internal/middleware"
	"distillery/internal/planning"
	"distillery/internal/repository"
	"distillery/internal/service"
	"distillery/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
//
// rdb may be nil: postings then serialize in-process only, forecasts are not
// cached and workbook exports are disabled.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, recipes planning.RecipeTable) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	lockTTL := time.Duration(cfg.StockLockTTLSeconds) * time.Second
	lockWait := time.Duration(cfg.StockLockWaitSeconds) * time.Second

	var (
		locker service.ItemLocker
		cache  service.SnapshotCache
		queue  service.ExportQueue
		store  service.ExportStore
	)
	if rdb != nil {
		locker = infra.NewRedisItemLocker(rdb, lockTTL, lockWait)
		cache = infra.NewRedisSnapshotCache(rdb, time.Duration(cfg.ForecastCacheTTLMinutes)*time.Minute)
		queue = worker.NewDispatcher(rdb)
		store = infra.NewRedisExportStore(rdb)
	} else {
		log.Warn().Msg("redis not configured: in-process stock locks, no forecast cache, exports disabled")
		locker = infra.NewLocalItemLocker(lockWait)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	itemRepo := repository.NewItemRepository(db)
	lotRepo := repository.NewLotRepository(db)
	txnRepo := repository.NewInventoryTxnRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	ledgerSvc := service.NewLedgerService(itemRepo, lotRepo, txnRepo, locker, cache)
	planningSvc := service.NewPlanningService(ledgerSvc, recipes, queue, store)

	// ── Handlers ─────────────────────────────────────────────────────────────
	inventoryH := handler.NewInventoryHandler(ledgerSvc)
	planningH := handler.NewPlanningHandler(planningSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOperator, middleware.RolePlanner)
	writers := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleOperator)
	planners := middleware.RequireRole(middleware.RoleAdmin, middleware.RolePlanner)

	v1 := r.Group("/v1", jwtMW)
	{
		inv := v1.Group("/inventory")
		{
			inv.GET("/items", anyRole, inventoryH.ListItems)
			inv.POST("/items", writers, inventoryH.CreateItem)
			inv.GET("/items/:id/on-hand", anyRole, inventoryH.OnHand)
			inv.GET("/items/:id/lots", anyRole, inventoryH.Lots)
			inv.POST("/items/:id/lots", writers, inventoryH.CreateLot)
			inv.GET("/items/:id/lots/:lot_id/on-hand", anyRole, inventoryH.LotOnHand)

			inv.POST("/transactions", writers, inventoryH.PostTransactions)
			inv.GET("/transactions", anyRole, inventoryH.ListTransactions)
			inv.POST("/stocktake", writers, inventoryH.Stocktake)
		}

		plan := v1.Group("/planning")
		{
			plan.POST("/requirements", anyRole, planningH.Requirements)
			plan.POST("/projection", anyRole, planningH.Projection)
			plan.POST("/shortages", anyRole, planningH.Shortages)
			plan.POST("/exports", planners, planningH.RequestExport)
			plan.GET("/exports/:id", planners, planningH.DownloadExport)
		}
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
