package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echolog "github.com/labstack/gommon/log"
	"github.com/spf13/pflag"

	"github.com/iliyamo/transport-ticketing/internal/booking"
	"github.com/iliyamo/transport-ticketing/internal/config"
	"github.com/iliyamo/transport-ticketing/internal/database"
	"github.com/iliyamo/transport-ticketing/internal/handler"
	"github.com/iliyamo/transport-ticketing/internal/inventory"
	"github.com/iliyamo/transport-ticketing/internal/middleware"
	"github.com/iliyamo/transport-ticketing/internal/model"
	"github.com/iliyamo/transport-ticketing/internal/queue"
	"github.com/iliyamo/transport-ticketing/internal/repository"
	"github.com/iliyamo/transport-ticketing/internal/repository/memstore"
	"github.com/iliyamo/transport-ticketing/internal/router"
	"github.com/iliyamo/transport-ticketing/internal/schedule"
	"github.com/iliyamo/transport-ticketing/internal/sequence"
	queue_publisher "github.com/iliyamo/transport-ticketing/internal/service"
)

func main() {
	port := pflag.String("port", "", "HTTP port, overrides APP_PORT")
	policyFile := pflag.String("policy", "", "scheduling policy YAML, overrides POLICY_FILE")
	migrate := pflag.Bool("migrate", false, "create the MySQL tables before serving")
	audit := pflag.Bool("audit-consumer", false, "append reservation.paid events to "+queue.AuditLogPath)
	pflag.Parse()

	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}
	if *policyFile != "" {
		cfg.PolicyFile = *policyFile
	}
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		log.Fatalf("load policy: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg, policy, *migrate || cfg.DBMigrate)
	defer closeStore()

	e := echo.New()
	e.HideBanner = true
	if cfg.Env == "dev" {
		e.Logger.SetLevel(echolog.DEBUG)
	}
	logger := func(prefix string) *echolog.Logger {
		l := echolog.New(prefix)
		l.SetLevel(e.Logger.Level())
		return l
	}

	calc := inventory.New(policy.DefaultCapacity)
	seq := sequence.New(store, sequence.Tags{
		model.ChannelCounter: policy.ChannelTags.Counter,
		model.ChannelOnline:  policy.ChannelTags.Online,
	}, logger("sequence"))
	bcfg := booking.Config{Calculator: calc, Codes: seq, Logger: logger("booking")}
	if cfg.AMQPURL != "" {
		bcfg.Events = queue_publisher.New(cfg.AMQPURL)
	} else {
		log.Printf("RABBITMQ_URL not set; reservation.paid events are not published")
	}
	writer := booking.NewWriter(store, bcfg)
	expander := schedule.NewExpander(store, schedule.ExpanderConfig{
		HorizonDays: policy.HorizonDays,
		Location:    policy.Location(),
		Logger:      logger("schedule"),
	})

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}
	limit := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)

	trips := handler.NewTripHandler(inventory.NewService(calc, store))
	reservations := handler.NewReservationHandler(store, writer, seq)
	templates := handler.NewTemplateHandler(store, schedule.NewService(store, expander))

	router.RegisterRoutes(e)
	router.RegisterPublic(e, trips, reservations, limit)
	router.RegisterStaff(e, reservations, cfg.JWTSecret, limit)
	router.RegisterAdmin(e, templates, cfg.JWTSecret, cache)

	if *audit {
		go func() {
			url := cfg.AMQPURL
			if url == "" {
				url = queue_publisher.DefaultURL
			}
			if err := queue.StartAuditConsumer(ctx, url); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("audit consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdown); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// openStore returns the configured store and its close function.
func openStore(ctx context.Context, cfg config.Config, policy config.Policy, migrate bool) (repository.Store, func()) {
	switch cfg.StoreDriver {
	case "memory":
		st := memstore.New()
		for _, c := range policy.Directory.Companies {
			st.PutCompany(model.Company{ID: c.ID, Name: c.Name, Code: c.Code})
		}
		for _, a := range policy.Directory.Agencies {
			st.PutAgency(model.Agency{ID: a.ID, CompanyID: a.CompanyID, Name: a.Name, Phone: a.Phone})
		}
		log.Printf("memory store seeded with %d companies and %d agencies",
			len(policy.Directory.Companies), len(policy.Directory.Agencies))
		return st, func() {}
	case "mysql":
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		if migrate {
			if err := repository.Migrate(ctx, db); err != nil {
				log.Fatalf("migrate: %v", err)
			}
			log.Printf("schema migrated")
		}
		return repository.NewMySQLStore(db, cfg.TxRetries), func() { _ = db.Close() }
	}
	log.Fatalf("unknown STORE_DRIVER %q (want mysql or memory)", cfg.StoreDriver)
	return nil, nil
}
