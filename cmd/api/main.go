package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/petrolia/termlab/internal/auth"
	"github.com/petrolia/termlab/internal/blocks"
	blocksrepo "github.com/petrolia/termlab/internal/blocks/repo"
	"github.com/petrolia/termlab/internal/equipment"
	equipmentrepo "github.com/petrolia/termlab/internal/equipment/repo"
	"github.com/petrolia/termlab/internal/identity"
	identityrepo "github.com/petrolia/termlab/internal/identity/repo"
	"github.com/petrolia/termlab/internal/operations"
	operationsrepo "github.com/petrolia/termlab/internal/operations/repo"
	"github.com/petrolia/termlab/internal/router"
	"github.com/petrolia/termlab/internal/sample"
	samplerepo "github.com/petrolia/termlab/internal/sample/repo"
	"github.com/petrolia/termlab/internal/schema"
	"github.com/petrolia/termlab/pkg/database"
	"github.com/petrolia/termlab/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting termlab")

	// init db
	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := schema.Apply(ctx, db); err != nil {
		sugar.Fatalf("apply schema: %v", err)
	}

	hasher := auth.BcryptHasher{}

	// the seeded superadmin must change the generated password on first login
	seedEmail := os.Getenv("SEED_ADMIN_EMAIL")
	if seedEmail == "" {
		seedEmail = "admin@local.dev"
	}
	seedPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if seedPassword == "" {
		seedPassword = utilities.NewKSUID()
	}
	seedHash, err := hasher.Hash(seedPassword)
	if err != nil {
		sugar.Fatalf("hash seed password: %v", err)
	}
	if err := schema.Seed(ctx, db, seedEmail, seedHash); err != nil {
		sugar.Fatalf("seed: %v", err)
	}

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("auth config: %v", err)
	}

	// repos
	companyRepo := identityrepo.NewCompanyRepo(db)
	terminalRepo := identityrepo.NewTerminalRepo(db)
	userRepo := identityrepo.NewUserRepo(db)
	blockRepo := blocksrepo.NewBlockRepo(db)
	typeRepo := equipmentrepo.NewTypeRepo(db)
	equipRepo := equipmentrepo.NewEquipmentRepo(db)
	eventRepo := operationsrepo.NewEventRepo(db)
	externalRepo := operationsrepo.NewExternalRepo(db)
	sampleRepo := samplerepo.NewSampleRepo(db)

	// services
	authSvc := auth.NewService(userRepo, companyRepo, hasher, authCfg)
	identitySvc := identity.NewService(companyRepo, terminalRepo, userRepo, hasher)
	blockSvc := blocks.NewService(blockRepo)
	equipmentSvc := equipment.NewService(typeRepo, equipRepo, terminalRepo)
	operationsSvc := operations.NewService(eventRepo, externalRepo, equipRepo, typeRepo, terminalRepo)
	sampleSvc := sample.NewService(sampleRepo, terminalRepo, equipRepo)

	handler := router.RegisterRoutes(router.Handlers{
		Auth:       auth.NewHandler(authSvc, sugar),
		AuthSvc:    authSvc,
		Identity:   identity.NewHandler(identitySvc, sugar),
		Blocks:     blocks.NewHandler(blockSvc, sugar),
		Equipment:  equipment.NewHandler(equipmentSvc, sugar),
		Operations: operations.NewHandler(operationsSvc, sugar),
		Samples:    sample.NewHandler(sampleSvc, sugar),
	}, sugar)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	sugar.Infof("service is running on %s; press Ctrl+C to stop", addr)

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// ping db once more
	if err := db.PingContext(doneCtx); err != nil {
		sugar.Warnf("db ping on shutdown failed: %v", err)
	}

	// shutdown http server
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
