package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"showdown-backend/internal/assets"
	"showdown-backend/internal/quizzes"
	"showdown-backend/internal/services/health"
	"showdown-backend/internal/shared/auth"
	"showdown-backend/internal/shared/config"
	"showdown-backend/internal/shared/server"
	"showdown-backend/internal/shared/server/middleware"
	"showdown-backend/internal/shared/storage/db"
	"showdown-backend/internal/shared/storage/object"
	localstore "showdown-backend/internal/shared/storage/object/local"
	s3store "showdown-backend/internal/shared/storage/object/s3"
	"showdown-backend/internal/shared/telemetry"
)

// App holds shared dependencies and the router built from them.
type App struct {
	Config        config.Config
	Router        *gin.Engine
	DB            *sql.DB
	Store         object.BlobStore
	Verifier      *auth.Verifier
	QuizRepo      quizzes.Repo
	QuizService   *quizzes.Service
	AssetService  *assets.Service
	QuizHandler   *quizzes.Handler
	AssetHandler  *assets.Handler
	HealthService *health.Service
}

// Build prepares shared dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret, !cfg.IsDevLike())
	if err != nil {
		return nil, err
	}

	sqlDB, dialect, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		if sqlDB != nil {
			sqlDB.Close()
		}
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Verifier: verifier,
	}

	switch {
	case sqlDB == nil:
		app.QuizRepo = quizzes.NewMemoryRepo()
	case dialect == db.DialectSQLite:
		app.QuizRepo = &quizzes.SQLiteRepo{Pool: sqlDB}
	default:
		app.QuizRepo = &quizzes.PGRepo{Pool: sqlDB}
	}

	app.QuizService = &quizzes.Service{Repo: app.QuizRepo}
	app.AssetService = &assets.Service{Store: store, MaxBytes: cfg.UploadMaxBytes}
	app.QuizHandler = quizzes.NewHandler(app.QuizService)
	app.AssetHandler = assets.NewHandler(app.AssetService)
	if sqlDB != nil {
		app.HealthService = health.NewService(sqlDB)
	} else {
		app.HealthService = health.NewService(nil)
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:       cfg,
		QuizHandler:  app.QuizHandler,
		AssetHandler: app.AssetHandler,
		Verifier:     verifier,
		Health:       app.HealthService,
		Limiter:      middleware.NewRateLimiter(nil),
	})

	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, string, error) {
	defaults := db.DefaultServerOptions()
	if db.IsLambdaRuntime() {
		defaults = db.DefaultLambdaOptions()
	}
	opts, err := db.OptionsFromEnv(defaults)
	if err != nil {
		return nil, "", err
	}

	if cfg.DBDriver == db.DialectSQLite {
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, "", fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		sqlDB, err := db.ConnectSQLite(ctx, cfg.SQLitePath, opts)
		if err != nil {
			return nil, "", err
		}
		if err := db.RunMigrations(ctx, sqlDB, db.DialectSQLite); err != nil {
			sqlDB.Close()
			return nil, "", fmt.Errorf("run sqlite migrations: %w", err)
		}
		return sqlDB, db.DialectSQLite, nil
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, "", nil
		}
		return nil, "", errors.New("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "database connect failed", "error": err})
			return nil, "", nil
		}
		return nil, "", err
	}
	if cfg.IsDevLike() {
		if err := db.RunMigrations(ctx, sqlDB, db.DialectPostgres); err != nil {
			sqlDB.Close()
			return nil, "", fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, db.DialectPostgres, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.BlobStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.S3PublicBaseURL,
			PublicACL:       cfg.S3PublicACL,
			KMSKeyID:        cfg.SSEKMSKeyID,
		})
	default:
		return localstore.New(cfg.LocalStoreDir, strings.TrimRight(cfg.PublicBaseURL, "/")+"/assets"), nil
	}
}
