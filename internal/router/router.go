package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kiwari-pos/tableside/internal/config"
	"github.com/kiwari-pos/tableside/internal/enum"
	"github.com/kiwari-pos/tableside/internal/handler"
	mw "github.com/kiwari-pos/tableside/internal/middleware"
	"github.com/kiwari-pos/tableside/internal/service"
	"github.com/kiwari-pos/tableside/internal/ws"
)

// Services are the engines behind the HTTP surface.
type Services struct {
	Status  *service.TableStatusService
	Lines   *service.TempTransactionService
	Kitchen *service.KitchenService
	Bills   *service.BillService
	Shift   *service.ShiftService
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, users handler.AuthStore, svc Services, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(users, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/{room}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	tableHandler := handler.NewTableHandler(svc.Status, svc.Bills, svc.Shift)
	lineHandler := handler.NewLineHandler(svc.Lines)
	kitchenHandler := handler.NewKitchenHandler(svc.Kitchen)
	billHandler := handler.NewBillHandler(svc.Bills)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Floor staff
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleCashier, enum.UserRoleWaiter))
			r.Route("/tables", func(r chi.Router) {
				tableHandler.RegisterRoutes(r)
				r.Route("/{tid}/lines", lineHandler.RegisterTableRoutes)
				r.Route("/{tid}/kitchen", kitchenHandler.RegisterTableRoutes)
			})
			r.Route("/lines", lineHandler.RegisterRoutes)
		})

		// Kitchen display
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleCashier, enum.UserRoleWaiter, enum.UserRoleKitchen))
			r.Route("/kitchen/tickets", kitchenHandler.RegisterRoutes)
		})

		// Cash counter; corrections are owner-only
		r.Route("/bills", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleCashier))
				billHandler.RegisterRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleOwner))
				billHandler.RegisterOwnerRoutes(r)
			})
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
