package constants

// Static route constants
const (
	PublicRoute       = "/"
	FundedRoute       = "/funded"
	CampaignsRoute    = "/campaigns"
	PortfolioRoute    = "/portfolio"
	DashboardRoute    = "/dashboard"
	BkashStartRoute   = "/payments/bkash/start"
	BkashSuccessRoute = "/payments/bkash/success"
	BkashCancelRoute  = "/payments/bkash/cancel"
	BkashWebhookRoute = "/payments/bkash/webhook"
	LoginRoute        = "/login"
)
