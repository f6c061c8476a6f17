// Package httpapi assembles the chi router: middleware chain, public
// endpoints, and the tenant-authenticated generation API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mediagen/internal/http/handlers"
	"mediagen/internal/infra"
	"mediagen/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger, countries middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Logger(logger),
		chimw.Recoverer,
		middleware.CORS(cfg.AllowedOrigins),
		middleware.I18N("en", countries),
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)
		r.Get("/stats/summary", app.StatsSummary)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(cfg.JWTSecret))

			// Job creation is the expensive surface; everything else is reads.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
				r.Post("/generate", app.VideosGenerate)
				r.Post("/videos/generate", app.VideosGenerate)
				r.Post("/images/generate", app.ImagesGenerate)
			})

			r.Get("/videos", app.VideosList)
			r.Get("/videos/{id}/status", app.VideoStatus)
			r.Post("/videos/{id}/refresh", app.VideoRefresh)
			r.Delete("/videos/{id}", app.VideoDelete)

			r.Get("/images", app.ImagesList)
			r.Get("/images/{id}/status", app.ImageStatus)
			r.Post("/images/{id}/refresh", app.ImageRefresh)
			r.Delete("/images/{id}", app.ImageDelete)

			r.Get("/jobs/{id}/assets", app.JobAssets)
			r.Get("/jobs/{id}/assets/zip", app.JobAssetsZip)
			r.Get("/assets/{id}/download", app.AssetDownload)
		})
	})

	// Generated media is served straight from the object store directory so
	// asset URLs resolve without a CDN in front.
	if cfg.StoragePath != "" {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StoragePath)))
		r.Get("/static/*", fileServer.ServeHTTP)
	}

	return r
}
