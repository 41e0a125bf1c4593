package rest

const (
	// api
	RouteApiV1 = "/api/v1"

	// auth
	RouteAuth          = RouteApiV1 + "/auth"
	RouteExternalLogin = RouteAuth + "/external-login"
	RouteRegister      = RouteAuth + "/register"
	RouteLogin         = RouteAuth + "/login"

	// files
	RouteFiles        = RouteApiV1 + "/files"
	RouteFilesUpload  = RouteFiles + "/upload"
	RouteFile         = RouteFiles + "/:slug"
	RouteFileDownload = RouteFile + "/download"

	// users
	RouteUsers = RouteApiV1 + "/users"
	RouteMe    = RouteUsers + "/me"

	// admin
	RouteAdminUsers     = RouteApiV1 + "/admin/users"
	RouteAdminUser      = RouteAdminUsers + "/:user_id"
	RouteAdminUserBlock = RouteAdminUser + "/block"
	RouteAdminUserRole  = RouteAdminUser + "/role"

	// ops
	RouteHealth  = RouteApiV1 + "/healthz"
	RouteMetrics = RouteApiV1 + "/metrics"
)
