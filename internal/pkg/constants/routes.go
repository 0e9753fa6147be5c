package constants

// Static route constants
const (
	PublicRoute    = "/"
	SitesRoute     = "/s"
	WebhookRoute   = "/webhooks/payment"
	APIV1Route     = "/api/v1"
	DashboardRoute = "/dashboard"
	LoginRoute     = "/login"
	RegisterRoute  = "/register"
)
