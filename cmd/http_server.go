package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/permitworks/permit-management/internal"
	"github.com/permitworks/permit-management/internal/auth"
	authpg "github.com/permitworks/permit-management/internal/auth/postgres"
	"github.com/permitworks/permit-management/internal/core/events"
	"github.com/permitworks/permit-management/internal/document"
	documentpg "github.com/permitworks/permit-management/internal/document/postgres"
	"github.com/permitworks/permit-management/internal/memo"
	memopg "github.com/permitworks/permit-management/internal/memo/postgres"
	"github.com/permitworks/permit-management/internal/permit"
	permitpg "github.com/permitworks/permit-management/internal/permit/postgres"
	"github.com/permitworks/permit-management/internal/report"
	"github.com/permitworks/permit-management/internal/shop"
	shoppg "github.com/permitworks/permit-management/internal/shop/postgres"
	"github.com/permitworks/permit-management/internal/transport/rest"
	"github.com/permitworks/permit-management/internal/user"
	userpg "github.com/permitworks/permit-management/internal/user/postgres"
	"github.com/permitworks/permit-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *gorm.DB
	SqlxDB *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger

	AuthHandler     *auth.Handler
	Ownership       *auth.OwnershipChecker
	UserHandler     *user.Handler
	ShopHandler     *shop.Handler
	PermitHandler   *permit.Handler
	DocumentHandler *document.Handler
	MemoHandler     *memo.Handler
	ReportHandler   *report.Handler

	PermitService *permit.Service
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	sweeper := startSweeper(deps.Config.Permit.SweepSchedule, deps.PermitService, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if sweeper != nil {
			<-sweeper.Stop().Done()
		}
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.SqlxDB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	rest.RegisterAllRoutes(
		deps.Router,
		deps.SqlxDB.DB,
		deps.AuthHandler,
		deps.Ownership,
		deps.UserHandler,
		deps.ShopHandler,
		deps.PermitHandler,
		deps.DocumentHandler,
		deps.MemoHandler,
		deps.ReportHandler,
		deps.Logger,
	)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	log := logger.L()

	gormDB, sqlxDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	eventBus := events.NewEventBus(log)

	// Auth
	authRepo := authpg.NewRepository(gormDB)
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authRepo, tokenGen, config.Security.BCryptCost)
	authHandler := auth.NewHandler(authService)
	ownership := auth.NewOwnershipChecker(sqlxDB, log)

	// Users; the auth service doubles as the password hasher so bcrypt cost
	// is configured in one place
	userRepo := userpg.NewUserRepository(gormDB)
	userService := user.NewService(userRepo, authService, log)
	userHandler := user.NewHandler(userService)

	// Shops; the user service provisions the paired tenant login
	shopRepo := shoppg.NewShopRepository(gormDB)
	shopService := shop.NewService(shopRepo, userService, log)
	shopHandler := shop.NewHandler(shopService)

	// Documents
	documentRepo := documentpg.NewDocumentRepository(gormDB)
	documentService := document.NewService(documentRepo, log)
	documentHandler := document.NewHandler(documentService)

	// Permits
	permitRepo := permitpg.NewPermitRepository(gormDB)
	permitService := permit.NewService(permitRepo, documentService, shopService, eventBus, log)
	permitHandler := permit.NewHandler(permitService, config.Permit.VerifyBaseURL)

	// Memos; subscribed to permit lifecycle events
	memoRepo := memopg.NewMemoRepository(gormDB)
	memoService := memo.NewService(memoRepo, log)
	memoHandler := memo.NewHandler(memoService)
	memo.NewEventHandler(memoService, log).RegisterEventHandlers(eventBus)

	// Reports
	reportService := report.NewService(gormDB, log)
	reportHandler := report.NewHandler(reportService)

	return &Dependencies{
		Config: config,
		Logger: log,
		DB:     gormDB,
		SqlxDB: sqlxDB,
		Router: chi.NewRouter(),

		AuthHandler:     authHandler,
		Ownership:       ownership,
		UserHandler:     userHandler,
		ShopHandler:     shopHandler,
		PermitHandler:   permitHandler,
		DocumentHandler: documentHandler,
		MemoHandler:     memoHandler,
		ReportHandler:   reportHandler,

		PermitService: permitService,
	}, nil
}

// initDB opens one pgx connection pool and hands it to both gorm (domain
// repositories) and sqlx (middleware lookups).
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	const driver = "pgx"

	sqlxDB, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlxDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlxDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlxDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlxDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn: sqlxDB.DB,
	}), &gorm.Config{})
	if err != nil {
		_ = sqlxDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return gormDB, sqlxDB, nil
}
