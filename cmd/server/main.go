package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-front-office/internal/config"
	"github.com/iliyamo/hotel-front-office/internal/database"
	"github.com/iliyamo/hotel-front-office/internal/engine"
	"github.com/iliyamo/hotel-front-office/internal/handler"
	"github.com/iliyamo/hotel-front-office/internal/middleware"
	"github.com/iliyamo/hotel-front-office/internal/queue"
	"github.com/iliyamo/hotel-front-office/internal/repository"
	"github.com/iliyamo/hotel-front-office/internal/router"
	queue_publisher "github.com/iliyamo/hotel-front-office/internal/service"
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()

	cfg := config.Load()

	var db *sql.DB
	var err error
	switch cfg.DBDriver {
	case "mysql":
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	default:
		db, err = database.OpenSQLite(cfg.DBPath)
	}
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(ctx, db, cfg.DBDriver); err != nil {
		log.Fatalf("database: %v", err)
	}

	reservations := repository.NewReservationRepo(db)
	stays := repository.NewStayRepo(db)
	rooms := repository.NewRoomRepo(db)
	desk := repository.NewDeskRepo(db)

	// Seed the inventory and recompute room statuses so the status board is
	// correct even after an unclean shutdown or manual data fixes.
	if err := rooms.Seed(ctx, cfg.RoomBlocks.Numbers()); err != nil {
		log.Fatalf("seed rooms: %v", err)
	}

	publish := func(ev queue.StayEvent) {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishStayEvent(pubCtx, ev)
	}
	eng := engine.New(db, reservations, stays, rooms, cfg.RoomBlocks, publish)

	if occupied, err := eng.Resync(ctx); err != nil {
		log.Fatalf("resync rooms: %v", err)
	} else {
		log.Printf("room statuses resynced, %d occupied", occupied)
	}

	go func() {
		if err := queue.StartStayEventConsumer(); err != nil {
			log.Printf("stay-consumer: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	rlCfg := config.LoadRateLimitConfig()
	if rdb := config.NewRedisClient(); rdb != nil {
		e.Use(middleware.NewTokenBucket(rlCfg, rdb))
	} else if rlCfg.Enabled {
		log.Printf("redis unavailable, rate limiting disabled")
	}

	router.RegisterRoutes(e)
	router.RegisterFrontDesk(e, handler.NewFrontDeskHandler(eng, reservations))
	router.RegisterStays(e, handler.NewStayHandler(eng, stays))
	router.RegisterRooms(e, handler.NewRoomHandler(eng, rooms))
	router.RegisterDesk(e, handler.NewDeskHandler(desk, cfg.RoomBlocks))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, db=%s)", addr, cfg.Env, cfg.DBDriver)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
