//cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unclebandit/reviewboost-backend/internal/auth"
	"github.com/unclebandit/reviewboost-backend/internal/config"
	"github.com/unclebandit/reviewboost-backend/internal/db"
	"github.com/unclebandit/reviewboost-backend/internal/observ"
)

// demoBusinessID matches the business inserted by seed/demo.sql.
var demoBusinessID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to connect", zap.Error(err))
	}
	defer conn.Close()

	for _, dir := range []string{"migrations", "seed"} {
		files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
		if err != nil {
			logger.Fatal("bad glob", zap.Error(err))
		}
		sort.Strings(files)

		for _, file := range files {
			content, err := os.ReadFile(file)
			if err != nil {
				logger.Fatal("failed to read", zap.String("file", file), zap.Error(err))
			}
			if _, err := conn.ExecContext(ctx, string(content)); err != nil {
				logger.Fatal("failed to execute", zap.String("file", file), zap.Error(err))
			}
			logger.Info("applied", zap.String("file", file))
		}
	}

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET is empty, the token below only works against a server with an empty secret")
	}
	token, err := auth.GenerateToken(demoBusinessID, "demo@reviewboost.local", secret, 30*24*time.Hour)
	if err != nil {
		logger.Fatal("failed to mint demo token", zap.Error(err))
	}

	fmt.Println("Database seeding completed successfully!")
	fmt.Printf("Demo dashboard token (30 days):\n%s\n", token)
}
