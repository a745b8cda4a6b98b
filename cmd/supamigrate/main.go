// Command supamigrate applies pending SQL migrations to a Supabase project.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aqasim81/supamigrate/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
