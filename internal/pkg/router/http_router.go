package router

import (
	"github.com/sohojbiniyog/biniyog/app/controllers"
	"github.com/sohojbiniyog/biniyog/internal/pkg/constants"
	"github.com/sohojbiniyog/biniyog/internal/pkg/middleware"
	"github.com/sohojbiniyog/biniyog/internal/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// Initialize controllers with repositories
	controllers.InitializeMainController()
	controllers.InitializePortfolioController()

	h.registerPublicRoutes(app)
	h.registerInvestorRoutes(app)
	h.registerBusinessRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get(constants.PublicRoute, controllers.HandleHome)
	app.Get(constants.FundedRoute, controllers.HandleFunded)
	app.Get(constants.CampaignsRoute+"/:id", controllers.HandleCampaignDetail)

	// Gateway webhook (no session, signature-verified in the pipeline)
	app.Post(constants.BkashWebhookRoute, controllers.HandleBkashWebhook)
}

func (h HttpRouter) registerInvestorRoutes(app *fiber.App) {
	app.Get(constants.CampaignsRoute+"/:id/invest", middleware.RequireInvestor, controllers.HandleInvestForm)
	app.Post(constants.CampaignsRoute+"/:id/invest", middleware.RequireInvestor, controllers.HandleInvestSubmit)

	app.Get(constants.BkashStartRoute+"/:id", middleware.RequireAuth, controllers.HandleBkashStart)
	app.Get(constants.BkashSuccessRoute+"/:id", middleware.RequireAuth, controllers.HandleBkashSuccess)
	app.Get(constants.BkashCancelRoute+"/:id", middleware.RequireAuth, controllers.HandleBkashCancel)

	app.Get(constants.PortfolioRoute, middleware.RequireAuth, controllers.HandlePortfolio)
}

func (h HttpRouter) registerBusinessRoutes(app *fiber.App) {
	app.Get(constants.DashboardRoute, middleware.RequireBusiness, controllers.HandleDashboard)
	app.Get(constants.DashboardRoute+"/campaigns/new", middleware.RequireBusiness, controllers.HandleCampaignNewForm)
	app.Post(constants.DashboardRoute+"/campaigns", middleware.RequireBusiness, controllers.HandleCampaignCreate)
	app.Get(constants.DashboardRoute+"/campaigns/:id/investments", middleware.RequireBusiness, controllers.HandleCampaignInvestments)
}
