package httpapi

import (
	"net/http"
	"strconv"
	"strings"
)

func (h *Handler) GetScreenshot(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.GetScreenshot")
	defer span.End()

	filename := strings.TrimSpace(r.PathValue("filename"))
	data, err := h.screenshotService.Image(filename)
	if err != nil {
		h.logger.WarnContext(ctx, "read screenshot failed", "filename", filename, "error", err)
		writeError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) GetScreenshotBase64(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "httpapi.Handler.GetScreenshotBase64")
	defer span.End()

	filename := strings.TrimSpace(r.PathValue("filename"))
	dataURL, err := h.screenshotService.DataURL(filename)
	if err != nil {
		h.logger.WarnContext(ctx, "encode screenshot failed", "filename", filename, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, screenshotBase64DTO{Filename: filename, DataURL: dataURL})
}
