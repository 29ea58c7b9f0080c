// Package router wires the HTTP surface: route groups, per-group middleware
// and the mapping from paths to handlers.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/luizfprog/betesportes-api/internal/auth"
	"github.com/luizfprog/betesportes-api/internal/config"
	"github.com/luizfprog/betesportes-api/internal/handler"
	"github.com/luizfprog/betesportes-api/internal/middleware"
)

// Handlers bundles every handler the router needs.
type Handlers struct {
	Auth    *handler.AuthHandler
	Users   *handler.UserHandler
	Teams   *handler.TeamHandler
	Markets *handler.MarketHandler
	Matches *handler.MatchHandler
	Bets    *handler.BetHandler
	Tickets *handler.TicketHandler
	Offers  *handler.OfferHandler
}

// Register sets up all routes.  The credential endpoints sit behind the
// Redis rate limiter; everything under /v1 except the public catalogue reads
// requires a valid access token, with the endpoint policy applied per
// resource group.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.RateLimit(rlCfg, rdb)

	// Credential flows.  Register is open to anonymous callers but picks up
	// a principal when a token is presented, so privileged registration and
	// self-registration share the endpoint.
	authGroup := e.Group("/v1/auth")
	authGroup.POST("/login", h.Auth.Login, limiter)
	authGroup.POST("/refresh", h.Auth.Refresh, limiter)
	authGroup.POST("/logout", h.Auth.Logout, limiter)
	authGroup.POST("/register", h.Auth.Register, limiter, middleware.OptionalJWTAuth(cfg.JWTSecret))
	authGroup.GET("/me", h.Auth.Me, middleware.JWTAuth(cfg.JWTSecret))
	authGroup.POST("/admin/register", h.Auth.RegisterAdmin,
		middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole(auth.RoleAdmin))

	// Teams and markets are reference data: reads are public, mutations go
	// through the endpoint policy (admin only).
	e.GET("/v1/teams", h.Teams.List)
	e.GET("/v1/teams/:id", h.Teams.Get)
	e.GET("/v1/markets", h.Markets.List)
	e.GET("/v1/markets/:id", h.Markets.Get)

	teams := e.Group("/v1/teams", middleware.JWTAuth(cfg.JWTSecret), middleware.RequirePolicy(auth.ResourceTeams))
	teams.POST("", h.Teams.Create)
	teams.PUT("/:id", h.Teams.Update)
	teams.DELETE("/:id", h.Teams.Delete)

	markets := e.Group("/v1/markets", middleware.JWTAuth(cfg.JWTSecret), middleware.RequirePolicy(auth.ResourceMarkets))
	markets.POST("", h.Markets.Create)
	markets.PUT("/:id", h.Markets.Update)
	markets.DELETE("/:id", h.Markets.Delete)

	matches := e.Group("/v1/matches", middleware.JWTAuth(cfg.JWTSecret), middleware.RequirePolicy(auth.ResourceMatches))
	matches.GET("", h.Matches.List)
	matches.GET("/:id", h.Matches.Get)
	matches.POST("", h.Matches.Create)
	matches.PUT("/:id", h.Matches.Update)
	matches.DELETE("/:id", h.Matches.Delete)

	bets := e.Group("/v1/bets", middleware.JWTAuth(cfg.JWTSecret), middleware.RequirePolicy(auth.ResourceBets))
	bets.GET("", h.Bets.List)
	bets.GET("/:id", h.Bets.Get)
	bets.POST("", h.Bets.Create)
	bets.PUT("/:id", h.Bets.Update)
	bets.DELETE("/:id", h.Bets.Delete)

	tickets := e.Group("/v1/tickets", middleware.JWTAuth(cfg.JWTSecret), middleware.RequirePolicy(auth.ResourceTickets))
	tickets.GET("", h.Tickets.List)
	tickets.GET("/upcoming", h.Tickets.ListUpcoming)
	tickets.GET("/ongoing", h.Tickets.ListOngoing)
	tickets.GET("/finished", h.Tickets.ListFinished)
	tickets.GET("/votes", h.Tickets.Votes)
	tickets.GET("/:id", h.Tickets.Get)
	tickets.POST("", h.Tickets.Create)
	tickets.PUT("/:id", h.Tickets.Update)
	tickets.DELETE("/:id", h.Tickets.Delete)

	offers := e.Group("/v1/offers", middleware.JWTAuth(cfg.JWTSecret), middleware.RequirePolicy(auth.ResourceOffers))
	offers.GET("", h.Offers.List)
	offers.GET("/:id", h.Offers.Get)
	offers.POST("", h.Offers.Create)
	offers.PUT("/:id", h.Offers.Update)
	offers.DELETE("/:id", h.Offers.Delete)

	users := e.Group("/v1/users", middleware.JWTAuth(cfg.JWTSecret), middleware.RequirePolicy(auth.ResourceUsers))
	users.GET("", h.Users.List)
	users.POST("", h.Users.Create)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)
}
