package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironfuel/cartapi/internal/service"
	"github.com/ironfuel/cartapi/pkg/health"
	"github.com/ironfuel/cartapi/pkg/middleware"
)

// WelcomeMessage is served on GET /.
const WelcomeMessage = "Welcome to the IronFuel API!"

const requestTimeout = 30 * time.Second

// RouterDeps are the collaborators the router wires into handlers.
type RouterDeps struct {
	CartService     *service.CartService
	CheckoutService *service.CheckoutService
	Health          *health.Handler
	Metrics         *middleware.HTTPMetrics
	Gatherer        prometheus.Gatherer
	CORS            middleware.CORSConfig
	PprofCIDRs      []string
	Logger          *slog.Logger
}

// NewRouter creates a chi router with all cart API routes registered.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.CORS(d.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(middleware.RequestLogging(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(d.Logger))

	// Health check endpoints
	r.Get("/health/live", d.Health.LivenessHandler())
	r.Get("/health/ready", d.Health.ReadinessHandler())
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, d.PprofCIDRs, d.Logger)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(WelcomeMessage))
	})

	cartHandler := NewCartHandler(d.CartService, d.Logger)
	checkoutHandler := NewCheckoutHandler(d.CheckoutService, d.Logger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		r.Route("/cart", func(r chi.Router) {
			r.Post("/", cartHandler.AddItem)
			r.Get("/{user_email}", cartHandler.GetCart)
			r.Put("/{id}", cartHandler.UpdateQuantity)
			r.Delete("/{id}", cartHandler.DeleteItem)
			r.Delete("/clear/{user_email}", cartHandler.ClearCart)
		})

		r.Post("/create-checkout-session", checkoutHandler.CreateSession)
	})

	return r
}
