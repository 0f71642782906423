package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"alumnihub/jobingest/cmd"
	"alumnihub/jobingest/logger"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	ctx := context.Background()
	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Error("Command failed: %v", err)
		os.Exit(1)
	}
}
