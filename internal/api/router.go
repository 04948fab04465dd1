package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/garderoba/internal/model"
)

// Options configures the API router.
type Options struct {
	JWTSecret     string
	WelcomePoints int
	// Limiter throttles favorite, interest and exchange requests. Nil
	// disables throttling.
	Limiter *RateLimiter
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sqlx.DB, opts Options) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: opts.JWTSecret, WelcomePoints: opts.WelcomePoints}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	engagementHandler := &EngagementHandler{DB: db}
	exchangesHandler := &ExchangesHandler{DB: db}
	imagesHandler := &ImagesHandler{DB: db}

	authMW := AuthMiddleware(opts.JWTSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	throttle := func(h http.Handler) http.Handler { return h }
	if opts.Limiter != nil {
		throttle = opts.Limiter.Handler
	}
	authed := func(f http.HandlerFunc) http.Handler { return authMW(f) }
	admin := func(f http.HandlerFunc) http.Handler { return authMW(requireAdmin(f)) }
	limited := func(f http.HandlerFunc) http.Handler { return authMW(throttle(f)) }

	// Auth.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("GET /api/auth/me", authed(authHandler.Me))
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))

	// Items: browsing is public, writes need an account.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.Handle("POST /api/items", authed(itemsHandler.Create))
	mux.Handle("PUT /api/items/{id}", authed(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", authed(itemsHandler.Delete))
	mux.Handle("PUT /api/items/{id}/status", authed(itemsHandler.SetStatus))
	mux.Handle("PUT /api/items/{id}/active", admin(itemsHandler.SetActive))

	// Images.
	mux.Handle("POST /api/items/{id}/images", authed(imagesHandler.Upload))
	mux.HandleFunc("GET /api/items/{id}/images/{position}", imagesHandler.Get)

	// Engagement.
	mux.Handle("POST /api/items/{id}/favorite", limited(engagementHandler.ToggleFavorite))
	mux.Handle("POST /api/items/{id}/interest", limited(engagementHandler.ExpressInterest))
	mux.Handle("DELETE /api/items/{id}/interest", authed(engagementHandler.WithdrawInterest))
	mux.Handle("GET /api/items/{id}/interest", authed(engagementHandler.ListInterests))

	// Exchanges.
	mux.Handle("POST /api/items/{id}/exchange", limited(exchangesHandler.Create))
	mux.Handle("GET /api/exchanges", authed(exchangesHandler.List))

	// Users.
	mux.HandleFunc("GET /api/users/{id}/items", itemsHandler.UserItems)
	mux.Handle("PUT /api/users/profile", authed(usersHandler.UpdateProfile))
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("GET /api/users/search", admin(usersHandler.Search))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))
	mux.Handle("PUT /api/users/{id}/toggle-status", admin(usersHandler.ToggleStatus))

	return mux
}
