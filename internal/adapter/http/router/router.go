package router

import (
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Wizard  *handler.WizardHandler
	Media   *handler.MediaHandler
	Listing *handler.ListingHandler
	Cart    *handler.CartHandler
}

type Options struct {
	JWTSecret      string
	AdminRole      string
	RequestTimeout time.Duration
	QueryTimeout   time.Duration
	Metrics        *metrics.MetricsManager
	Logger         *logger.Logger
}

func New(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger.Named("http"), opts.Metrics))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}
	r.Get("/media/staging/{id}", h.Media.Preview)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.JWTSecret, opts.Logger.Named("auth")))
		if opts.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(opts.RequestTimeout))
		}

		WizardRoutes(r, h.Wizard)
		ListingRoutes(r, h.Listing, opts.AdminRole, opts.QueryTimeout)
		CartRoutes(r, h.Cart)
	})
	return r
}
