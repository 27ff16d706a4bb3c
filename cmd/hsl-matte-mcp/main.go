package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/hsl-matte-mcp/internal/logging"
	"github.com/ironsheep/hsl-matte-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("hsl-matte-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("hsl-matte-mcp - MCP server for hue/saturation/luminance selection mattes")
			fmt.Println()
			fmt.Println("Usage: hsl-matte-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Printf("  %s=debug    Log level (debug, info, warn, error)\n", logging.EnvLevel)
			fmt.Printf("  %s=console  Human-readable logs instead of JSON\n", logging.EnvFormat)
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	log := logging.FromEnv()
	log.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.Version = Version
	srv := server.New(server.WithLogger(log))
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server error")
		stop()
		os.Exit(1)
	}
}
