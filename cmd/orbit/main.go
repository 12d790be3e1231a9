package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/doeshing/orbit-go/internal/infrastructure/cli"
	"github.com/doeshing/orbit-go/internal/infrastructure/cli/helpers"
	"github.com/doeshing/orbit-go/internal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	verbose := isVerbose()
	log := logger.NewStd(os.Stderr, verbose)
	log.Debug("starting", map[string]interface{}{"args": strings.Join(os.Args[1:], " ")})

	root := cli.NewRootCmd(cli.Options{Verbose: verbose})
	if err := root.ExecuteContext(ctx); err != nil {
		log.Debug("command failed", map[string]interface{}{"error_type": fmt.Sprintf("%T", err)})
		helpers.RenderError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func isVerbose() bool {
	return strings.EqualFold(os.Getenv("ORBIT_DEBUG"), "1") || strings.EqualFold(os.Getenv("ORBIT_DEBUG"), "true")
}
