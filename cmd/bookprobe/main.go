// bookprobe drives the full booking scenario matrix against a running
// agent + gateway mock pair and verifies every outcome against the
// bookings database and the captured outbound traffic.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/villacarmen/bookprobe/pkg/config"
	"github.com/villacarmen/bookprobe/pkg/storage"
	"github.com/villacarmen/bookprobe/pkg/suite"
	"github.com/villacarmen/bookprobe/pkg/transport"
	"github.com/villacarmen/bookprobe/pkg/verify"
)

func main() {
	envPath := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", *envPath, "error", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting booking scenario run",
		"agent", cfg.AgentBaseURL,
		"gateway", cfg.GatewayURL,
		"phone", cfg.ClientPhone)

	client := transport.NewClient(transport.Config{
		WebhookURL:      cfg.WebhookURL(),
		AgentBaseURL:    cfg.AgentBaseURL,
		GatewayURL:      cfg.GatewayURL,
		DefaultPhone:    cfg.ClientPhone,
		ResponseTimeout: cfg.ResponseTimeout,
		PollInterval:    cfg.PollInterval,
	})
	if err := client.Health(ctx); err != nil {
		logger.Error("Pre-flight health check failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(ctx, cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to bookings database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	runner, err := suite.NewRunner(suite.Config{
		ClientPhone: cfg.ClientPhone,
		PhoneLast9:  cfg.PhoneLast9(),
		LogsDir:     cfg.LogsDir,
		MaxSteps:    cfg.MaxSteps,
	}, client, verify.New(store), logger)
	if err != nil {
		logger.Error("Failed to initialize runner", "error", err)
		os.Exit(1)
	}

	summary, err := runner.Run(ctx)
	if err != nil {
		logger.Error("Run aborted", "error", err)
		os.Exit(1)
	}

	printSummary(summary)
	if !summary.AllPassed() {
		os.Exit(1)
	}
}

func printSummary(s suite.Summary) {
	fmt.Println()
	fmt.Println("======================================================================")
	fmt.Println("SCENARIO RESULTS")
	fmt.Println("======================================================================")
	for _, r := range s.Results {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %-4s %-45s (%.1fs)\n",
			status, r.Scenario.Key, r.Scenario.Name, r.Duration.Seconds())
		if r.Err != nil {
			fmt.Printf("         %v\n", r.Err)
		}
	}
	fmt.Println("======================================================================")
	fmt.Printf("  %d/%d passed\n", len(s.Results)-s.FailedCount(), len(s.Results))
	fmt.Println("======================================================================")
}
