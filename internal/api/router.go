package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/parcelroute/parcel-server/internal/auth"
	"github.com/parcelroute/parcel-server/internal/config"
	"github.com/parcelroute/parcel-server/internal/payments"
	"github.com/parcelroute/parcel-server/internal/store"
)

// Finalizer settles a parcel payment.
type Finalizer interface {
	Finalize(ctx context.Context, req payments.FinalizeRequest) (*payments.FinalizeResult, error)
}

// Pinger reports store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers need. Intents may be nil when no
// payment gateway is configured.
type Deps struct {
	Parcels   store.ParcelRepo
	Payments  store.PaymentRepo
	Users     store.UserRepo
	Riders    store.RiderRepo
	Finalizer Finalizer
	Intents   payments.IntentCreator
	Verifier  auth.Verifier
	Pinger    Pinger
}

// NewRouter creates the HTTP router with all endpoints.
func NewRouter(deps Deps, cfg config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	h := &handlers{
		parcels:   deps.Parcels,
		payments:  deps.Payments,
		users:     deps.Users,
		riders:    deps.Riders,
		finalizer: deps.Finalizer,
		intents:   deps.Intents,
		pinger:    deps.Pinger,
		maxBody:   cfg.MaxBodyBytes,
		currency:  cfg.Stripe.Currency,
	}

	verify := auth.VerifyToken(deps.Verifier)
	sameEmail := auth.RequireEmailMatch("email")

	r.Get("/", h.GetRoot)
	r.Get("/v1/health", h.GetHealth)

	r.Route("/parcels", func(r chi.Router) {
		r.Post("/", h.PostParcel)
		r.With(verify, sameEmail).Get("/", h.ListParcels)
		r.With(verify).Get("/{parcelID}", h.GetParcel)
		r.With(verify).Delete("/{parcelID}", h.DeleteParcel)
	})

	r.Post("/create-payment-intent", h.PostPaymentIntent)
	r.Route("/payments", func(r chi.Router) {
		if cfg.Payments.RequireAuth {
			r.With(verify).Post("/", h.PostPayment)
		} else {
			r.Post("/", h.PostPayment)
		}
		r.With(verify, sameEmail).Get("/", h.ListPayments)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.PostUser)
		r.With(verify).Get("/{email}/role", h.GetUserRole)
		r.With(verify, h.requireAdmin).Patch("/{userID}/role", h.PatchUserRole)
	})

	r.Route("/riders", func(r chi.Router) {
		r.Use(verify)
		r.Post("/", h.PostRider)
		r.With(h.requireAdmin).Get("/pending", h.ListRiders(store.RiderStatusPending))
		r.With(h.requireAdmin).Get("/active", h.ListRiders(store.RiderStatusActive))
		r.With(h.requireAdmin).Patch("/{riderID}/status", h.PatchRiderStatus)
	})

	return r
}

type handlers struct {
	parcels   store.ParcelRepo
	payments  store.PaymentRepo
	users     store.UserRepo
	riders    store.RiderRepo
	finalizer Finalizer
	intents   payments.IntentCreator
	pinger    Pinger
	maxBody   int64
	currency  string
}
