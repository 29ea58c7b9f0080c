package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/luizfprog/betesportes-api/internal/config"
	"github.com/luizfprog/betesportes-api/internal/database"
	"github.com/luizfprog/betesportes-api/internal/handler"
	"github.com/luizfprog/betesportes-api/internal/queue"
	"github.com/luizfprog/betesportes-api/internal/repository"
	"github.com/luizfprog/betesportes-api/internal/router"
	"github.com/luizfprog/betesportes-api/internal/service"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	rlCfg := config.LoadRateLimitConfig()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	teams := repository.NewTeamRepo(db)
	markets := repository.NewMarketRepo(db)
	matches := repository.NewMatchRepo(db)
	bets := repository.NewBetRepo(db)
	tickets := repository.NewTicketRepo(db)
	offers := repository.NewOfferRepo(db)

	var publisher handler.TicketPublisher
	if os.Getenv("RABBITMQ_URL") != "" || os.Getenv("AMQP_URL") != "" {
		publisher = service.NewQueuePublisher(queue.BrokerURL())
		go func() {
			if err := queue.StartTicketConsumer(); err != nil {
				log.Printf("ticket consumer stopped: %v", err)
			}
		}()
	}

	h := router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users, tokens),
		Users:   handler.NewUserHandler(cfg, users),
		Teams:   handler.NewTeamHandler(teams, users),
		Markets: handler.NewMarketHandler(markets, users),
		Matches: handler.NewMatchHandler(matches, teams, users),
		Bets:    handler.NewBetHandler(bets, matches, users),
		Tickets: handler.NewTicketHandler(tickets, bets, users, publisher),
		Offers:  handler.NewOfferHandler(offers, users),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	if len(cfg.CORSOrigins) > 0 {
		// Credentials are required for the refresh cookie, so the origin
		// list must be explicit; a wildcard would be rejected by browsers.
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowCredentials: true,
		}))
	}

	router.Register(e, h, cfg, rlCfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
