package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"

	// Upstream credential
	RouteAuth = "/api/kpoint/auth"

	// Catalog
	RouteVideos      = "/api/kpoint/videos"
	RouteVideo       = "/api/kpoint/videos/{videoId}"
	RouteVideoFields = "/api/kpoint/videos/{videoId}/fields"
	RoutePackages    = "/api/kpoint/packages"
	RoutePublish     = "/api/kpoint/publish"

	// Partner
	RoutePartner         = "/api/kpoint/partner"
	RoutePartnerPlayLink = "/api/kpoint/partner/play-link"

	// Admin
	RouteAdminTemplates           = "/api/kpoint/admin/templates"
	RouteAdminTemplatePublish     = "/api/kpoint/admin/templates/{id}/publish"
	RouteAdminTemplateAssignments = "/api/kpoint/admin/templates/{id}/assignments"
	RouteAdminGroups              = "/api/kpoint/admin/groups"
	RouteAdminUsers               = "/api/kpoint/admin/users"

	// Impersonation
	RouteUserCurrent = "/api/kpoint/user/current"
	RouteUserSwitch  = "/api/kpoint/user/switch"

	RouteDebugConfig = "/api/kpoint/debug/config"
)
