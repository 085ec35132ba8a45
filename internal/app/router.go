package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/unclebandit/reviewboost-backend/internal/config"
	"github.com/unclebandit/reviewboost-backend/internal/controller"
	"github.com/unclebandit/reviewboost-backend/internal/handler"
	"github.com/unclebandit/reviewboost-backend/internal/middleware"
	"github.com/unclebandit/reviewboost-backend/internal/repository"
)

// NewRouter mounts the public review flow, the cron triggers and the
// JWT-protected dashboard API.
func NewRouter(cfg *config.Config, store *repository.Store, s *Services, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Tracing())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		controller.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	review := &handler.ReviewHandler{
		Lifecycle:  s.Lifecycle,
		Routing:    s.Routing,
		Businesses: store.Businesses,
		Customers:  store.Customers,
		Logger:     logger,
	}
	r.Get("/review/{code}", review.ResolveLink)
	r.Post("/review/{code}/redirect", review.ConfirmRedirect)

	cron := &handler.CronHandler{
		Scheduler: s.Scheduler,
		Campaigns: s.Campaigns,
		Quota:     s.Quota,
		Logger:    logger,
	}
	campaigns := &controller.CampaignController{CampaignService: s.Campaigns}
	campaignTrigger := handler.NewCampaignHandler(s.Campaigns)
	customers := &controller.CustomerController{CustomerService: s.Customers}
	feedback := &controller.FeedbackController{FeedbackService: s.Feedback}
	business := &controller.BusinessController{
		BusinessService: s.Business,
		StatsService:    s.Stats,
		RequestService:  s.Lifecycle,
	}
	qr := &controller.QRController{QRService: s.QR}

	r.Route("/api", func(r chi.Router) {
		r.Post("/review/submit", review.Submit)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CronAuth(cfg.CronSecret))
			r.Get("/cron/auto-send", cron.AutoSend)
			r.Post("/cron/auto-send", cron.AutoSend)
			r.Post("/cron/reset-usage", cron.ResetUsage)
			r.Post("/billing/plan", cron.ChangePlan)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.BusinessAuth(cfg.JWTSecret))

			r.Get("/business", business.GetBusiness)
			r.Put("/business", business.UpdateSettings)
			r.Get("/stats", business.Stats)
			r.Get("/requests", business.History)

			r.Route("/campaigns", func(r chi.Router) {
				r.Post("/", campaigns.CreateCampaign)
				r.Get("/", campaigns.ListCampaigns)
				r.Post("/send", campaignTrigger.SendCampaignHandler)
				r.Get("/{id}", campaigns.GetCampaignDetails)
				r.Post("/{id}/send", campaigns.SendCampaign)
				r.Post("/{id}/enqueue", campaigns.EnqueueCampaign)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Post("/", customers.CreateCustomer)
				r.Get("/", customers.ListCustomers)
				r.Post("/import", customers.ImportCustomers)
				r.Delete("/{id}", customers.DeleteCustomer)
				r.Post("/{id}/send", customers.SendReviewRequest)
			})

			r.Route("/feedback", func(r chi.Router) {
				r.Get("/", feedback.ListFeedback)
				r.Post("/{id}/read", feedback.MarkRead)
				r.Post("/{id}/resolve", feedback.Resolve)
			})

			r.Post("/qr-codes", qr.CreateQRCode)
			r.Get("/qr-codes", qr.ListQRCodes)
		})
	})

	return r
}
