package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/freshfinds/catalog_server/internal/api"
	"github.com/freshfinds/catalog_server/internal/config"
	"github.com/freshfinds/catalog_server/internal/database"
	"github.com/freshfinds/catalog_server/internal/limiter"
	"github.com/freshfinds/catalog_server/internal/logger"
	mw "github.com/freshfinds/catalog_server/internal/middleware"
	"github.com/freshfinds/catalog_server/internal/repo"
	"github.com/freshfinds/catalog_server/internal/resp"
	"github.com/freshfinds/catalog_server/internal/service"
)

// AppDependencies 包含应用的所有依赖
type AppDependencies struct {
	ProductHandler *api.ProductHandler
	AuthHandler    *api.AuthHandler
	SessionService service.SessionService
}

// initConfigAndLogger 初始化配置和日志器
func initConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %v", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %v", err)
	}

	return cfg, lg, nil
}

// initDatabase 初始化数据库连接并执行迁移
// 迁移在HTTP服务器启动前完成，确保处理请求时表结构已就绪
func initDatabase(cfg *config.Config, lg *zap.Logger) (*database.DB, error) {
	db, err := database.New(cfg, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	migrationsDir := cfg.Migrations.Dir
	lg.Sugar().Infow("using migrations directory", "path", migrationsDir)

	if err := db.RunMigrations(migrationsDir); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %v", err)
	}

	return db, nil
}

// initDependencies 初始化应用依赖（仓储、服务、处理器）
func initDependencies(cfg *config.Config, db *database.DB, lg *zap.Logger) *AppDependencies {
	// 依赖注入链：仓储 -> 服务 -> API处理器
	productRepo := repo.NewProductRepository(db.DB)
	catalogService := service.NewCatalogService(productRepo, cfg.Contact.DefaultWhatsAppNumber, lg)
	sessionService := service.NewSessionService(cfg, lg)

	productHandler := api.NewProductHandler(catalogService, lg)
	authHandler := api.NewAuthHandler(sessionService, lg)

	return &AppDependencies{
		ProductHandler: productHandler,
		AuthHandler:    authHandler,
		SessionService: sessionService,
	}
}

// setupRoutes 设置路由和中间件
func setupRoutes(cfg *config.Config, deps *AppDependencies, lg *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// 健康检查端点
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		reqID := mw.RequestIDFromContext(r.Context())
		data := map[string]any{
			"status":  "ok",
			"version": cfg.App.Version,
		}
		resp.OK(w, &data, reqID, "")
	})

	// 管理员认证路由（无需会话）
	mux.HandleFunc("/api/v1/auth/login", deps.AuthHandler.Login)
	mux.HandleFunc("/api/v1/auth/logout", deps.AuthHandler.Logout)

	// 公开读接口（无需会话）
	mux.HandleFunc("/api/v1/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			deps.ProductHandler.ListProducts(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// 意向记录是匿名可写接口，单独加限流
	interestLimiter := limiter.NewTokenBucketLimiter(
		int64(cfg.RateLimit.InterestCapacity),
		cfg.RateLimit.InterestInterval,
	)
	rateLimited := limiter.RateLimit(interestLimiter, lg)

	// 商品详情与意向记录
	mux.Handle("/api/v1/products/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/interest") {
			if r.Method != http.MethodPost {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			rateLimited(http.HandlerFunc(deps.ProductHandler.RecordInterest)).ServeHTTP(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet:
			deps.ProductHandler.GetProduct(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	// 管理专用路由：会话闸门是变更操作暴露给外部调用方的唯一路径
	adminAuth := mw.AdminAuth(deps.SessionService, lg)

	mux.Handle("/api/v1/admin/products", adminAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			deps.ProductHandler.CreateProduct(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))
	mux.Handle("/api/v1/admin/products/", adminAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			deps.ProductHandler.UpdateProduct(w, r)
		case http.MethodDelete:
			deps.ProductHandler.DeleteProduct(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// 构建中间件链：请求进入时执行顺序为 access log → CORS → timeout → recovery → request ID
	handler := mw.RequestID(mux)
	handler = mw.Recovery(lg)(handler)
	handler = mw.Timeout(cfg.App.RequestTimeout)(handler)
	handler = mw.CORS(mw.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
	})(handler)
	handler = mw.AccessLog(lg)(handler)

	return handler
}

// startServer 启动服务器并处理优雅关闭
func startServer(cfg *config.Config, handler http.Handler, lg *zap.Logger) {
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	lg.Sugar().Infow("server starting", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	// 启动服务器（异步）
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	select {
	case err := <-serverErrCh:
		if err != nil && err != http.ErrServerClosed {
			lg.Sugar().Fatalw("server error", "err", err)
		}
	case <-quit:
		lg.Sugar().Infow("shutdown signal received")
	}

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Sugar().Errorw("server shutdown error", "err", err)
	}
	lg.Sugar().Infow("server exited")
}

// main 为应用入口，协调各个组件的初始化和启动
func main() {
	// 1) 加载配置和初始化日志
	cfg, lg, err := initConfigAndLogger()
	if err != nil {
		log.Fatalf("failed to initialize config and logger: %v", err)
	}

	// 2) 初始化数据库连接并执行迁移
	db, err := initDatabase(cfg, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to initialize database", "err", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			lg.Sugar().Errorw("failed to close database connection", "err", err)
		}
	}()

	// 3) 初始化应用依赖（仓储、服务、处理器）
	deps := initDependencies(cfg, db, lg)

	// 4) 设置路由和中间件
	handler := setupRoutes(cfg, deps, lg)

	// 5) 启动 HTTP 服务器
	startServer(cfg, handler, lg)
}
