package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/usecase"
)

func (h *Handler) CaptureAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.CaptureAll")
	defer span.End()

	top, err := parseOptionalInt("top", r.URL.Query().Get("top"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query := captureQuery{
		Top:  top,
		Mode: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("mode"))),
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	// An empty mode defers to the configured default.
	var mode capture.Mode
	if query.Mode != "" {
		if mode, err = capture.ParseMode(query.Mode); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
			return
		}
	}

	report, err := h.captureService.CaptureAll(ctx, usecase.CaptureAllInput{TopN: query.Top, Mode: mode})
	if err != nil {
		h.logger.ErrorContext(ctx, "capture batch failed", "top", query.Top, "mode", query.Mode, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, BatchReportToDTO(report))
}

func (h *Handler) CaptureSingle(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.CaptureSingle")
	defer span.End()

	entryID, err := parseEntryID(r.PathValue("entryID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.captureService.CaptureSingle(ctx, entryID)
	if err != nil {
		h.logger.WarnContext(ctx, "capture entry failed", "entry_id", entryID, "error", err)
		if errors.Is(err, usecase.ErrCaptureFailed) {
			writeErrorWithData(ctx, w, err, singleCaptureToDTO(item))
			return
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, singleCaptureToDTO(item))
}
