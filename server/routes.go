package server

import (
	"net/http"

	"github.com/jrsteele09/kpoint-gateway/internal/metrics"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, metrics.Handler())

	s.RegisterRouteHandler("GET "+RouteAuth, ChainMiddleware(s.AuthStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuth, ChainMiddleware(s.AuthAcquireHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteVideos, ChainMiddleware(s.ListVideosHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteVideo, ChainMiddleware(s.GetVideoHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteVideoFields, ChainMiddleware(s.VideoFieldsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RoutePackages, ChainMiddleware(s.PackagesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RoutePublish, ChainMiddleware(s.PublishHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RoutePartner, ChainMiddleware(s.PartnerHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RoutePartnerPlayLink, ChainMiddleware(s.PlayLinkHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteAdminTemplates, ChainMiddleware(s.AdminTemplatesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAdminTemplatePublish, ChainMiddleware(s.AdminPublishTemplateHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminTemplateAssignments, ChainMiddleware(s.AdminAssignmentsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminGroups, ChainMiddleware(s.AdminGroupsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAdminUsers, ChainMiddleware(s.AdminUsersHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteUserCurrent, ChainMiddleware(s.CurrentUserHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteUserSwitch, ChainMiddleware(s.SwitchUserHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteDebugConfig, ChainMiddleware(s.DebugConfigHandler(), s.APIMiddleware()...))

	// Preflight for every API route
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.CorsMiddleware))
}
