package httpapi

import (
	"net/http"

	"github.com/riskibarqy/fantasy-capture/internal/usecase"
)

func (h *Handler) GetTeamSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.GetTeamSnapshot")
	defer span.End()

	entryID, err := parseEntryID(r.PathValue("entryID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	gw, err := parseOptionalInt("gameweek", r.URL.Query().Get("gameweek"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query := teamSnapshotQuery{Gameweek: gw}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.snapshotService.BuildSnapshot(ctx, entryID, query.Gameweek)
	if err != nil {
		h.logger.WarnContext(ctx, "build team snapshot failed", "entry_id", entryID, "gameweek", query.Gameweek, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamSnapshotToDTO(item))
}

func (h *Handler) ListLiveTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.ListLiveTeams")
	defer span.End()

	top, err := parseOptionalInt("top", r.URL.Query().Get("top"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query := liveTeamsQuery{Top: top}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.snapshotService.LiveTeams(ctx, query.Top)
	if err != nil {
		h.logger.ErrorContext(ctx, "list live teams failed", "top", query.Top, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, liveTeamsToDTO(items))
}

var _ SnapshotBuilder = (*usecase.SnapshotService)(nil)
