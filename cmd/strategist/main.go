// Command strategist analyzes the risk of multi-leg option strategies.
package main

import (
	"fmt"
	"os"
	"strings"

	"options-strategist/internal/cli"
	"options-strategist/internal/config"
	"options-strategist/internal/logging"
)

func main() {
	// Configuration decides the log level and the store location, so it is
	// loaded before the command tree is built.
	cfg, err := config.Load(configDirFromArgs(os.Args[1:]))
	if err != nil {
		fallback := logging.NewLogger()
		fallback.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Console = cfg.Log.Console
	logCfg.File = cfg.Log.File
	logCfg.FilePath = cfg.LogPath()
	logger := logging.NewLoggerWithConfig(logCfg)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// configDirFromArgs finds --config before cobra parses flags.
func configDirFromArgs(args []string) string {
	for i, a := range args {
		switch {
		case a == "--config" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		}
	}
	return ""
}
