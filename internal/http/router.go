package httpapi

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pushbeams/beams-device/internal/http/handlers"
)

// NewRouter builds the development registrar routing tree.
func NewRouter(api *handlers.API, relay *handlers.Relay) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RecoverJSON)
	r.Use(RequestLogger(api))

	r.Get("/healthz", api.Health)

	// Relay sockets are long-lived and stay outside the request timeout.
	r.Get("/push/{key}", func(w http.ResponseWriter, r *http.Request) {
		relay.Listen(w, r, chi.URLParam(r, "key"))
	})

	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(20 * time.Second))

		g.Post("/push/{key}", func(w http.ResponseWriter, r *http.Request) {
			relay.Push(w, r, chi.URLParam(r, "key"))
		})
		g.Get("/auth", api.IssueToken)

		g.Route("/device_api/v1/instances/{instanceId}", func(apiRouter chi.Router) {
			apiRouter.Use(api.RequireInstance)
			apiRouter.Get("/web-vapid-public-key", api.PublicKey)
			apiRouter.Post("/devices/{platform}", func(w http.ResponseWriter, r *http.Request) {
				api.RegisterDevice(w, r, chi.URLParam(r, "platform"))
			})
			apiRouter.Route("/devices/{platform}/{deviceId}", func(device chi.Router) {
				device.Get("/", func(w http.ResponseWriter, r *http.Request) {
					api.GetDevice(w, r, chi.URLParam(r, "platform"), chi.URLParam(r, "deviceId"))
				})
				device.Delete("/", func(w http.ResponseWriter, r *http.Request) {
					api.DeleteDevice(w, r, chi.URLParam(r, "platform"), chi.URLParam(r, "deviceId"))
				})
				device.Put("/metadata", func(w http.ResponseWriter, r *http.Request) {
					api.UpdateMetadata(w, r, chi.URLParam(r, "platform"), chi.URLParam(r, "deviceId"))
				})
				device.Put("/user", func(w http.ResponseWriter, r *http.Request) {
					api.SetUserID(w, r, chi.URLParam(r, "platform"), chi.URLParam(r, "deviceId"))
				})
				device.Get("/interests", func(w http.ResponseWriter, r *http.Request) {
					api.ListInterests(w, r, chi.URLParam(r, "platform"), chi.URLParam(r, "deviceId"))
				})
				device.Put("/interests", func(w http.ResponseWriter, r *http.Request) {
					api.ReplaceInterests(w, r, chi.URLParam(r, "platform"), chi.URLParam(r, "deviceId"))
				})
				device.Post("/interests/{interest}", func(w http.ResponseWriter, r *http.Request) {
					api.AddInterest(w, r, chi.URLParam(r, "platform"), chi.URLParam(r, "deviceId"), unescapedParam(r, "interest"))
				})
				device.Delete("/interests/{interest}", func(w http.ResponseWriter, r *http.Request) {
					api.RemoveInterest(w, r, chi.URLParam(r, "platform"), chi.URLParam(r, "deviceId"), unescapedParam(r, "interest"))
				})
			})
		})

		g.Route("/publish_api/v1/instances/{instanceId}", func(apiRouter chi.Router) {
			apiRouter.Use(api.RequireInstance)
			apiRouter.Post("/publishes", api.Publish)
		})
	})
	return r
}

// unescapedParam decodes a path parameter that chi matched against RawPath.
func unescapedParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if value, err := url.PathUnescape(raw); err == nil {
		return value
	}
	return raw
}
