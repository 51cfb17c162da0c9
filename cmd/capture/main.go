// Command capture runs one capture batch and prints the report as JSON on
// stdout. Logs go to stderr. The exit status is 1 when the batch could not
// run and 2 when it ran but no manager was captured.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/fantasy-capture/internal/app"
	"github.com/riskibarqy/fantasy-capture/internal/config"
	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/interfaces/httpapi"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
	"github.com/riskibarqy/fantasy-capture/internal/usecase"
)

func main() {
	top := flag.Int("top", 0, "number of top managers to capture (default CAPTURE_TOP_N)")
	mode := flag.String("mode", "", "sequential or bounded-batch (default CAPTURE_MODE)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewConsole(cfg.LogLevel)
	logging.SetDefault(logger)

	code := run(cfg, logger, *top, *mode)
	_ = logger.Sync()
	os.Exit(code)
}

func run(cfg config.Config, logger *logging.Logger, top int, rawMode string) int {
	var mode capture.Mode
	if rawMode != "" {
		parsed, err := capture.ParseMode(rawMode)
		if err != nil {
			logger.Error("invalid mode", "mode", rawMode, "error", err)
			return 1
		}
		mode = parsed
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := app.NewServices(cfg, logger)
	report, err := svc.Capture.CaptureAll(ctx, usecase.CaptureAllInput{TopN: top, Mode: mode})
	if err != nil {
		logger.Error("capture batch failed", "error", err)
		return 1
	}

	enc := sonic.ConfigDefault.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(httpapi.BatchReportToDTO(report)); err != nil {
		logger.Error("write report failed", "error", err)
		return 1
	}

	if report.SuccessfulCaptures == 0 {
		return 2
	}
	return 0
}
