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
	log "github.com/sirupsen/logrus"

	config "github.com/kriugm/kri-services/configs"
	"github.com/kriugm/kri-services/internal/db"
	"github.com/kriugm/kri-services/internal/monitorsvc/broker"
	svcconfig "github.com/kriugm/kri-services/internal/monitorsvc/config"
	"github.com/kriugm/kri-services/internal/monitorsvc/handlers"
	"github.com/kriugm/kri-services/internal/monitorsvc/routes"
	"github.com/kriugm/kri-services/internal/monitorsvc/ws"
	"github.com/kriugm/kri-services/internal/nats"
)

const SERVICE_NAME = "monitor"

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

	// Connect to NATS
	n, err := nats.Connect(SERVICE_NAME+"-"+instanceId, cfg.NatsURL)
	if err != nil {
		log.Fatalf("Error: unable to connect to NATS server %v", err)
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// optional mongo backlog
	var backlog broker.Backlog
	if cfg.MongoURI != "" {
		mdb, err := db.ConnectToDB(context.Background(), cfg.MongoURI)
		if err != nil {
			log.Fatalf("Error: unable to connect to MongoDB %v", err)
		}
		defer mdb.Client().Disconnect(context.Background())

		b, err := db.NewBacklog(context.Background(), mdb, cfg.BacklogTTL)
		if err != nil {
			log.Fatalf("Error: unable to prepare backlog %v", err)
		}
		backlog = b
		log.Infof("scan backlog enabled, keeping events for %s", cfg.BacklogTTL)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(c.Handler)
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Initialize websocket handler
	s := ws.NewWs()
	h := handlers.NewHandler(s, backlog, cfg.Backlog)
	routes.SetRoutes(r, h, routes.InitAuth(cfg.JWTSecret))

	// subscribe to scans from the event service
	b := broker.NewBroker(n.Conn, s.Broadcast, backlog)
	sub, err := b.Subscribe(nats.SubjectAttendanceScan)
	if err != nil {
		log.Fatalf("Error: unable to subscribe to %s %v", nats.SubjectAttendanceScan, err)
	}

	// Create server with timeout settings
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 60 * time.Second,
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

	sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
