package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prasetyowira/qrtag/api/middleware"
	"github.com/prasetyowira/qrtag/constant"
	appLogger "github.com/prasetyowira/qrtag/infrastructure/logger"
)

// Router represents the application router
type Router struct {
	handler *Handler
	router  *chi.Mux
}

// NewRouter creates a new router
func NewRouter(handler *Handler) *Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogger())

	return &Router{
		handler: handler,
		router:  r,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() {
	appLogger.Info(constant.MsgSettingUpRoutes, appLogger.LoggerInfo{
		ContextFunction: constant.CtxRouter,
	})

	r.router.Post(constant.RouteSessions, r.handler.CreateSession)
	r.router.Get(constant.RouteSession, r.handler.GetSession)
	r.router.Delete(constant.RouteSession, r.handler.DeleteSession)

	r.router.Put(constant.RouteInput, r.handler.SetInput)
	r.router.Put(constant.RouteFormat, r.handler.SetFormat)
	r.router.Put(constant.RouteColor, r.handler.SetColor)
	r.router.Put(constant.RouteViewport, r.handler.SetViewport)

	r.router.Post(constant.RouteGenerate, r.handler.Generate)
	r.router.Get(constant.RouteSymbol, r.handler.GetSymbol)
	r.router.Get(constant.RouteExport, r.handler.ExportSymbol)
	r.router.Get(constant.RouteGenerations, r.handler.ListGenerations)

	// Healthcheck
	r.router.Get(constant.RouteHealthcheck, func(w http.ResponseWriter, r *http.Request) {
		appLogger.CtxDebug(r.Context(), constant.MsgHealthcheckRequest, appLogger.LoggerInfo{
			ContextFunction: constant.CtxRouter,
		})

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(constant.MsgHealthy))
	})
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
