package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/domain/manager"
	"github.com/riskibarqy/fantasy-capture/internal/domain/snapshot"
	"github.com/riskibarqy/fantasy-capture/internal/platform/logging"
	"github.com/riskibarqy/fantasy-capture/internal/usecase"
)

type CaptureRunner interface {
	CaptureAll(ctx context.Context, input usecase.CaptureAllInput) (capture.BatchReport, error)
	CaptureSingle(ctx context.Context, entryID int64) (usecase.SingleCapture, error)
}

type SnapshotBuilder interface {
	BuildSnapshot(ctx context.Context, entryID int64, gameweekID int) (snapshot.TeamSnapshot, error)
	LiveTeams(ctx context.Context, topN int) (usecase.LiveTeams, error)
}

type LeagueReader interface {
	Events(ctx context.Context) (usecase.EventList, error)
	Standings(ctx context.Context) (manager.Standings, error)
	CheckAuth(ctx context.Context) (usecase.AuthCheck, error)
	CacheStatus() usecase.CacheStatus
	Status() usecase.ScraperStatus
}

type ScreenshotReader interface {
	Image(filename string) ([]byte, error)
	DataURL(filename string) (string, error)
}

type Handler struct {
	captureService    CaptureRunner
	snapshotService   SnapshotBuilder
	leagueService     LeagueReader
	screenshotService ScreenshotReader
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	captureService CaptureRunner,
	snapshotService SnapshotBuilder,
	leagueService LeagueReader,
	screenshotService ScreenshotReader,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		captureService:    captureService,
		snapshotService:   snapshotService,
		leagueService:     leagueService,
		screenshotService: screenshotService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseEntryID(raw string) (int64, error) {
	value := strings.TrimSpace(raw)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid entry id %q", usecase.ErrInvalidInput, value)
	}
	return id, nil
}

// parseOptionalInt returns 0 for an absent value so services apply their defaults.
func parseOptionalInt(name, raw string) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return n, nil
}
