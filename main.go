package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/models"
	"github.com/cppla/aiblog/repositories"
	"github.com/cppla/aiblog/routes"
	"github.com/cppla/aiblog/utils"
)

const purgeBatchSize = 500

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db, err := config.InitDatabase(zap.NewStdLog(utils.Logger.Named("gorm")), models.All()...)
	if err != nil {
		utils.Sugar.Fatalf("init database: %v", err)
	}

	if err := os.MkdirAll(cfg.MediaRoot, 0o755); err != nil {
		utils.Sugar.Fatalf("create media root: %v", err)
	}
	storage := utils.NewStorage(cfg.MediaRoot, cfg.MediaURL, int64(cfg.UploadMaxMB)<<20, cfg.ImageMaxWidth, cfg.ImageMaxHeight)

	r, err := routes.SetupRouter(db, storage, cfg)
	if err != nil {
		utils.Sugar.Fatalf("setup router: %v", err)
	}

	// Remove uploads no post claimed within the configured window
	uploads := repositories.NewUploadRepository(db)
	cleaner, err := utils.StartScheduler(cfg.UploadCleanupSpec, func() {
		n, err := uploads.PurgeExpired(context.Background(), storage, purgeBatchSize)
		if err != nil {
			utils.Sugar.Warnf("purge expired uploads: %v", err)
		}
		if n > 0 {
			utils.Sugar.Infof("purged %d expired uploads", n)
		}
	})
	if err != nil {
		utils.Sugar.Fatalf("schedule upload cleaner: %v", err)
	}
	defer cleaner.Stop()
	defer utils.CloseRedis()

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Errorf("server stopped with error: %v", err)
	}
}
