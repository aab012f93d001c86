package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/kriugm/kri-services/configs"
	"github.com/kriugm/kri-services/internal/eventsvc/broker"
	svcconfig "github.com/kriugm/kri-services/internal/eventsvc/config"
	"github.com/kriugm/kri-services/internal/eventsvc/db"
	handlers "github.com/kriugm/kri-services/internal/eventsvc/handlers"
	"github.com/kriugm/kri-services/internal/eventsvc/service"
	"github.com/kriugm/kri-services/internal/eventsvc/store"
	nats "github.com/kriugm/kri-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "event"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	config.Logging(SERVICE_NAME+"_service", os.Getenv("LOG_LEVEL"))
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {
	cfg := svcconfig.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	policy, err := svcconfig.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		log.Fatalf("Failed to load policy: %v", err)
	}

	// pg connection
	dbpool, err := db.Connect(cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	if err := db.Migrate(dbpool); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	// scans are still recorded when NATS is down, the monitor just misses them
	var publisher service.ScanPublisher
	n, err := nats.Connect(SERVICE_NAME+"-"+instanceId, cfg.NatsURL)
	if err != nil {
		log.Warnf("unable to connect to NATS server, live monitor disabled: %v", err)
	} else {
		defer n.Conn.Close()
		log.Printf("NATS connection established successfully %s", n.Url)
		publisher = broker.NewBroker(n.Conn)
	}

	userStore := store.NewUserStore(dbpool)
	universityStore := store.NewUniversityStore(dbpool)
	teamStore := store.NewTeamStore(dbpool)
	personStore := store.NewPersonStore(dbpool)
	cardStore := store.NewCardStore(dbpool)
	attendanceStore := store.NewAttendanceStore(dbpool)
	ticketStore := store.NewTicketStore(dbpool)

	userService := service.NewUserService(userStore, universityStore)
	cardService := service.NewCardService(cardStore)
	attendanceService := service.NewAttendanceService(attendanceStore, publisher)
	rosterService := service.NewRosterService(universityStore, teamStore, personStore, policy)
	ticketService := service.NewTicketService(ticketStore, universityStore, policy)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(userService, cardService, attendanceService, rosterService, ticketService,
		handlers.Options{ProfileOnDenied: cfg.ProfileOnDenied})
	h.InitAuth(cfg.JWTSecret, cfg.JWTTTL)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
