package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/campus-room-reservation/internal/config"
	"github.com/iliyamo/campus-room-reservation/internal/database"
	"github.com/iliyamo/campus-room-reservation/internal/engine"
	"github.com/iliyamo/campus-room-reservation/internal/handler"
	"github.com/iliyamo/campus-room-reservation/internal/middleware"
	"github.com/iliyamo/campus-room-reservation/internal/queue"
	"github.com/iliyamo/campus-room-reservation/internal/repository"
	"github.com/iliyamo/campus-room-reservation/internal/router"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, database.Pool{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		ConnLifetime: time.Duration(cfg.DBConnLifetime) * time.Minute,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("database: %v", err)
	}
	cancel()

	// Redis is optional: a nil client disables the availability cache, the
	// response cache and the rate limiter.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; caching and rate limiting disabled")
	}

	// Catalogs and stores.
	rooms := repository.NewRoomRepo(db)
	slots := repository.NewSlotRepo(db)
	holidays := repository.NewHolidayRepo(db)
	enrollment := repository.NewEnrollmentRepo(db)
	requests := repository.NewRequestRepo(db)
	conflicts := repository.NewConflictRepo(db)
	allocations := repository.NewAllocationRepo(db)

	// The availability view doubles as the cache invalidator hooked into the
	// ledger's write paths.
	avail := &engine.AvailabilityView{
		Ledger: nil, // set below once the ledger exists
		Rooms:  rooms,
		RDB:    rdb,
		TTL:    time.Duration(cfg.AvailabilityTTL) * time.Second,
	}
	ledger := repository.NewCellRepo(db, rooms, avail)
	avail.Ledger = ledger

	notifier := &queue.Publisher{}

	clash := &engine.ClashDetector{
		Ledger:      ledger,
		Rooms:       rooms,
		Holidays:    holidays,
		Enrollment:  enrollment,
		Allocations: allocations,
	}
	workflow := &engine.Workflow{
		Ledger:   ledger,
		Requests: requests,
		Clash:    clash,
		Rooms:    rooms,
		Slots:    slots,
		Notifier: notifier,
	}
	arbiter := &engine.Arbiter{
		Ledger:    ledger,
		Requests:  requests,
		Conflicts: conflicts,
		Notifier:  notifier,
	}
	generator := &engine.Generator{
		Ledger:      ledger,
		Requests:    requests,
		Allocations: allocations,
		Slots:       slots,
		Holidays:    holidays,
		Clash:       clash,
		Notifier:    notifier,
	}

	// Background consumer mirrors events into logs/reservation.log.
	if !cfg.ConsumerDisabled {
		go func() {
			if err := queue.StartEventConsumer(); err != nil {
				log.Printf("event consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	requestHandler := handler.NewRequestHandler(workflow, requests)
	conflictHandler := handler.NewConflictHandler(arbiter)
	timetableHandler := handler.NewTimetableHandler(generator)
	availHandler := handler.NewAvailabilityHandler(avail)

	router.RegisterRoutes(e, availHandler, config.LoadCacheConfig(), rdb)
	router.RegisterRequester(e, requestHandler, cfg.JWTSecret)
	router.RegisterRequestRead(e, requestHandler, cfg.JWTSecret)
	router.RegisterReview(e, requestHandler, cfg.JWTSecret)
	router.RegisterArbitration(e, conflictHandler, cfg.JWTSecret)
	router.RegisterTimetables(e, timetableHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
