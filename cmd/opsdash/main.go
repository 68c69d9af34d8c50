package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"opsdash/config"
	"opsdash/internal/logger"
	"opsdash/internal/telemetry"
)

const defaultConfigName = "opsdash.yml"

type app struct {
	configArg  string
	configPath string
	cfg        *config.Config
	shutdown   telemetry.ShutdownFunc
}

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat(defaultConfigName); err == nil {
		return defaultConfigName
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, defaultConfigName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func applyDefaults(cfg *config.Config) {
	od := &cfg.OpsDash

	if od.Server.Addr == "" {
		od.Server.Addr = ":8000"
	}
	if len(od.Server.CORSOrigins) == 0 {
		od.Server.CORSOrigins = []string{"*"}
	}
	if od.Server.CORSCredentials == nil {
		allow := true
		od.Server.CORSCredentials = &allow
	}
	if od.Server.ReadTimeout <= 0 {
		od.Server.ReadTimeout = 10 * time.Second
	}
	if od.Server.WriteTimeout <= 0 {
		od.Server.WriteTimeout = 60 * time.Second
	}
	if od.Server.RequestTimeout <= 0 {
		od.Server.RequestTimeout = 30 * time.Second
	}
	if od.Server.ShutdownTimeout <= 0 {
		od.Server.ShutdownTimeout = 10 * time.Second
	}

	if od.SOP.Mode == "" {
		od.SOP.Mode = "local"
	}
	if od.SOP.Timeout <= 0 {
		od.SOP.Timeout = 30 * time.Second
	}

	if od.Store.Mode == "" {
		od.Store.Mode = "memory"
	}

	if od.Pipeline.Workers <= 0 {
		od.Pipeline.Workers = 4
	}
	if od.Pipeline.BatchSize <= 0 {
		od.Pipeline.BatchSize = 100
	}
	if od.Pipeline.FlushInterval <= 0 {
		od.Pipeline.FlushInterval = 2 * time.Second
	}
	if od.Pipeline.Queue.Mode == "" {
		od.Pipeline.Queue.Mode = "memory"
	}
	if od.Pipeline.Queue.Capacity <= 0 {
		od.Pipeline.Queue.Capacity = 1024
	}
	if od.Pipeline.Queue.Redis.Addr == "" {
		od.Pipeline.Queue.Redis.Addr = "127.0.0.1:6379"
	}
	if od.Pipeline.Queue.BlockTimeout <= 0 {
		od.Pipeline.Queue.BlockTimeout = 5 * time.Second
	}
	if od.Pipeline.Output.Mode == "" {
		od.Pipeline.Output.Mode = "file"
	}
	if od.Pipeline.Output.File.Path == "" {
		od.Pipeline.Output.File.Path = "output/refresh_outcomes.jsonl"
	}
	if od.Pipeline.Output.NATS.URL == "" {
		od.Pipeline.Output.NATS.URL = "nats://127.0.0.1:4222"
	}

	if od.Store.Redis.Addr == "" {
		od.Store.Redis.Addr = od.Pipeline.Queue.Redis.Addr
	}

	if od.Graph.MaxDepth <= 0 {
		od.Graph.MaxDepth = 16
	}
	if od.Inventory.Path == "" {
		od.Inventory.Path = "connectors.csv"
	}
	if od.Telemetry.Exporter == "" {
		od.Telemetry.Exporter = telemetry.ExporterNone
	}
	if od.Telemetry.ServiceName == "" {
		od.Telemetry.ServiceName = "opsdash"
	}

	if od.Logging.Level == "" {
		od.Logging.Level = "info"
	}
}

// defaultConfig is used when no config file is found. Logging is on so
// failures still reach the console.
func defaultConfig() *config.Config {
	cfg := &config.Config{}
	cfg.OpsDash.Logging.Enabled = true
	cfg.OpsDash.Logging.Console = true
	return cfg
}

// applyEnv lets deployment variables override the file.
func applyEnv(cfg *config.Config) {
	od := &cfg.OpsDash
	if v := os.Getenv("PORT"); v != "" {
		od.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("OPSDASH_API_URL"); v != "" {
		od.SOP.APIURL = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGIN"); v != "" {
		od.Server.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		od.Server.CORSOrigins = append(od.Server.CORSOrigins, v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		od.Store.Redis.Addr = v
		od.Pipeline.Queue.Redis.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		od.Store.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		od.Pipeline.Output.NATS.URL = v
	}
}

// splitList splits a comma-separated env value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// load reads .env, the config file, defaults and env overrides, then
// starts logging and tracing.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	a.configPath = findConfigFile(a.configArg)
	if a.configPath == "" {
		a.cfg = defaultConfig()
	} else {
		cfg, err := config.LoadConfig(a.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		a.cfg = cfg
	}
	applyDefaults(a.cfg)
	applyEnv(a.cfg)

	lc := a.cfg.OpsDash.Logging
	if err := logger.Init(lc.Enabled, lc.Level, lc.File, lc.Console); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if a.configPath != "" {
		logger.Infof("Config loaded from: %s", a.configPath)
	} else {
		logger.Infof("No config file found, using defaults")
	}

	shutdown, err := telemetry.Init(telemetry.Config{
		Exporter:    a.cfg.OpsDash.Telemetry.Exporter,
		ServiceName: a.cfg.OpsDash.Telemetry.ServiceName,
		Writer:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.shutdown = shutdown
	return nil
}

func (a *app) close(_ *cobra.Command, _ []string) error {
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdown(ctx); err != nil {
			logger.Warnf("Tracer shutdown: %v", err)
		}
	}
	_ = logger.Sync()
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:                "opsdash",
		Short:              "Data platform operations dashboard",
		SilenceUsage:       true,
		PersistentPreRunE:  a.load,
		PersistentPostRunE: a.close,
	}
	root.PersistentFlags().StringVarP(&a.configArg, "config", "c", "", "path to "+defaultConfigName)

	root.AddCommand(
		newServeCmd(a),
		newWorkerCmd(a),
		newWatchCmd(a),
		newSOPCmd(a),
		newLineageCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
