package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vshulcz/Cubeship/pkg/util"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	util.PrintBuildInfo(buildVersion, buildDate, buildCommit)

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], logger); err != nil {
		logger.Fatal("agent failed", zap.Error(err))
	}
}
