package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"streamflow/internal/app"
	"streamflow/pkg/config"
	"streamflow/pkg/logger"
	"streamflow/pkg/shutdown"
)

// build metadata, set via ldflags during release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")

	addrVal, dbVal, cfgVal, setFlags, err := config.ParseCommandFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])
	eff, err := config.LoadEffective(cfgPath)
	if err != nil {
		logger.Init()
		shutdown.Abort("failed to load config", err, "", 0)
	}

	// flags win over env and file
	if setFlags["addr"] && addrVal != "" {
		eff.Addr = addrVal
	}
	if setFlags["db"] && dbVal != "" {
		eff.DBPath = dbVal
		eff.Config.Server.DBPath = dbVal
	}
	if len(setFlags) > 0 {
		eff.Source = "flags"
	}

	logger.InitWithLevel(eff.Config.Logging.Level)

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err, eff.DBPath, 0)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		logger.Error("server_exit", "error", err)
		os.Exit(1)
	}
}
