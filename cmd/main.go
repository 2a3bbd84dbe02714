package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"costpilot/internal/adapters/ai"
	"costpilot/internal/adapters/config"
	"costpilot/internal/adapters/errors/noop"
	"costpilot/internal/adapters/errors/sentry"
	"costpilot/internal/services/optimizer"
	"costpilot/pkg/errors"
	"costpilot/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration. A missing API key fails here, before any
	// artifact is written.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		fmt.Fprintln(os.Stderr, "set HF_API_KEY in the environment or a .env file")
		return 1
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Initialize error tracker
	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	// Create context cancelled on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	description, err := readDescription(os.Args[1:])
	if err != nil {
		log.Errorf("failed to read project description: %v", err)
		return 1
	}

	gateway := ai.NewHuggingFaceProvider(
		cfg.Inference.APIKey,
		cfg.Inference.BaseURL,
		cfg.Inference.Model,
		cfg.Inference.Timeout,
		ai.NewTokenBucketLimiter("huggingface", cfg.Inference.ReqPerMinute, cfg.Inference.Burst),
	)

	svc := optimizer.New(gateway, optimizer.Config{
		MaxAttempts:    cfg.Generation.MaxAttempts,
		InitialBackoff: cfg.Generation.InitialBackoff,
		MaxBackoff:     cfg.Generation.MaxBackoff,
		ArtifactDir:    cfg.Artifacts.Dir,
	})

	outcome, err := svc.Run(ctx, description)
	if err != nil {
		if errors.Is(err, errors.ErrStageAborted) {
			log.Warn("run aborted by signal")
			return 130
		}
		_ = errorTracker.CaptureError(ctx, err, map[string]string{"component": "pipeline"})
		log.Errorf("pipeline failed: %v", err)
		return 1
	}

	optimizer.PrintSummary(os.Stdout, outcome)
	log.Infof("artifacts written to %s", cfg.Artifacts.Dir)
	return 0
}

// readDescription takes the project description from the file named by the
// first argument, or interactively from stdin where an empty line ends the
// input.
func readDescription(args []string) (string, error) {
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", errors.Wrapf(errors.ErrInvalidInput, "read %s: %v", args[0], err)
		}
		return string(data), nil
	}

	fmt.Println("Describe your project (finish with an empty line):")
	scanner := bufio.NewScanner(os.Stdin)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return strings.Join(lines, "\n"), nil
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}
