package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /v1/status", handler.GetStatus)
	mux.HandleFunc("GET /v1/cache/status", handler.GetCacheStatus)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerLeagueRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/events", handler.ListEvents)
	mux.HandleFunc("GET /v1/league/standings", handler.GetLeagueStandings)
	mux.HandleFunc("GET /v1/auth/check", handler.CheckAuth)
	mux.HandleFunc("GET /v1/teams/live", handler.ListLiveTeams)
	mux.HandleFunc("GET /v1/teams/{entryID}", handler.GetTeamSnapshot)
}

func registerCaptureRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/captures", handler.CaptureAll)
	mux.HandleFunc("GET /v1/captures/{entryID}", handler.CaptureSingle)
}

func registerScreenshotRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/screenshots/{filename}", handler.GetScreenshot)
	mux.HandleFunc("GET /v1/screenshots/{filename}/base64", handler.GetScreenshotBase64)
}
