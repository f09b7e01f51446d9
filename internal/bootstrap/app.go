package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"vault-backend/internal/documents"
	"vault-backend/internal/grants"
	"vault-backend/internal/identity"
	"vault-backend/internal/notify"
	"vault-backend/internal/notify/emailjs"
	"vault-backend/internal/shared/config"
	"vault-backend/internal/shared/server"
	"vault-backend/internal/shared/storage/db"
	"vault-backend/internal/shared/storage/object"
	localstore "vault-backend/internal/shared/storage/object/local"
	s3store "vault-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Sender notify.Sender

	DocumentsRepo  documents.Repo
	GrantsRepo     grants.Repo
	UsersRepo      identity.Repo
	ChallengesRepo identity.ChallengeRepo

	DocumentsService *documents.Service
	GrantsService    *grants.Service
	IdentityService  *identity.Service

	DocumentsHandler *documents.Handler
	GrantsHandler    *grants.Handler
	IdentityHandler  *identity.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Sender: buildSender(cfg),
	}

	if sqlDB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: sqlDB}
		app.GrantsRepo = &grants.PGRepo{DB: sqlDB}
		app.UsersRepo = &identity.PGRepo{DB: sqlDB}
		app.ChallengesRepo = &identity.PGChallengeRepo{DB: sqlDB}
	} else {
		app.DocumentsRepo = documents.NewMemoryRepo()
		app.GrantsRepo = grants.NewMemoryRepo()
		memIdentity := identity.NewMemoryRepo()
		app.UsersRepo = memIdentity
		app.ChallengesRepo = memIdentity.Challenges()
	}

	app.DocumentsService = &documents.Service{Store: app.Store, Repo: app.DocumentsRepo}
	app.GrantsService = &grants.Service{
		Repo:     app.GrantsRepo,
		Docs:     app.DocumentsService,
		Notifier: app.Sender,
		Store:    app.Store,
		BaseURL:  cfg.ShareBaseURL,
	}
	app.DocumentsService.Grants = app.GrantsService
	app.IdentityService = &identity.Service{
		Users:      app.UsersRepo,
		Challenges: app.ChallengesRepo,
		SMS:        identity.LogCodeSender{},
	}

	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)
	app.GrantsHandler = grants.NewHandler(app.GrantsService)
	app.IdentityHandler = identity.NewHandler(app.IdentityService)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		DocumentHandler: app.DocumentsHandler,
		GrantHandler:    app.GrantsHandler,
		IdentityHandler: app.IdentityHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	if cfg.ObjectStoreType == "s3" {
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, fmt.Errorf("init s3 store: %w", err)
		}
		return store, nil
	}
	return localstore.New(cfg.LocalStoreDir, cfg.LocalBaseURL), nil
}

func buildSender(cfg config.Config) notify.Sender {
	if cfg.EmailServiceID != "" && cfg.EmailTemplateID != "" && cfg.EmailPublicKey != "" {
		client, err := emailjs.NewClient(cfg.EmailServiceID, cfg.EmailTemplateID, cfg.EmailPublicKey)
		if err == nil {
			return client
		}
		log.Printf("bootstrap: email service misconfigured, share emails go to the log: %v", err)
	} else {
		log.Printf("bootstrap: email service not configured, share emails go to the log")
	}
	return notify.LogSender{}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "development", "local", "test", "":
		return true
	}
	return false
}
