package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/rcliao/dynamic-memory/internal/cli"
	"github.com/rcliao/dynamic-memory/internal/logging"
)

func init() {
	godotenv.Load()
}

func main() {
	ctx, flush := logging.NewContext(context.Background(), false)

	err := cli.RootCmd.ExecuteContext(ctx)
	flush()
	if err != nil {
		os.Exit(1)
	}
}
