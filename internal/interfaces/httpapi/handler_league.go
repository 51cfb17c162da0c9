package httpapi

import (
	"net/http"

	"github.com/riskibarqy/fantasy-capture/internal/usecase"
)

var (
	_ CaptureRunner    = (*usecase.CaptureService)(nil)
	_ LeagueReader     = (*usecase.LeagueService)(nil)
	_ ScreenshotReader = (*usecase.ScreenshotService)(nil)
)

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.ListEvents")
	defer span.End()

	items, err := h.leagueService.Events(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list events failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, eventListToDTO(items))
}

func (h *Handler) GetLeagueStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.GetLeagueStandings")
	defer span.End()

	item, err := h.leagueService.Standings(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get league standings failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standingsToDTO(item))
}

func (h *Handler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.CheckAuth")
	defer span.End()

	item, err := h.leagueService.CheckAuth(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "auth check failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, authCheckToDTO(item))
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.GetStatus")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, scraperStatusToDTO(h.leagueService.Status()))
}

func (h *Handler) GetCacheStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.GetCacheStatus")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, cacheStatusToDTO(h.leagueService.CacheStatus()))
}
