package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Faith-tech-code/safemove/internal/auth"
	"github.com/Faith-tech-code/safemove/internal/config"
	"github.com/Faith-tech-code/safemove/internal/tracking"
	"github.com/Faith-tech-code/safemove/internal/trips"
	"github.com/Faith-tech-code/safemove/internal/uploads"
	"github.com/Faith-tech-code/safemove/internal/users"
	"github.com/Faith-tech-code/safemove/migrations"
	"github.com/Faith-tech-code/safemove/pkg/db"
	"github.com/Faith-tech-code/safemove/pkg/jwt"
	"github.com/Faith-tech-code/safemove/pkg/kafka"
	rredis "github.com/Faith-tech-code/safemove/pkg/redis"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── 1. Configuration ──
	cfg := config.Load()

	// ── 2. Token signer (missing secret is startup-fatal) ──
	signer, err := jwt.NewSigner(cfg.JWTSecret)
	if err != nil {
		log.Fatal(err)
	}

	// ── 3. PostgreSQL ──
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	if err := database.RunMigrations(ctx, migrations.FS); err != nil {
		log.Fatal("migrations failed:", err)
	}

	// ── 4. Redis ──
	redisClient, err := rredis.NewClient(cfg.RedisAddr)
	if err != nil {
		log.Fatal(err)
	}
	defer redisClient.Close()

	// ── 5. Kafka ──
	kafkaClient := kafka.NewClient(cfg.KafkaBrokers)
	if err := kafkaClient.EnsureTopics(ctx,
		kafka.TopicTripRequested,
		kafka.TopicTripCancelled,
	); err != nil {
		log.Fatal(err)
	}

	// ── 6. Stores & services ──
	userStore := users.NewPG(database.Pool)
	tripStore := trips.NewPG(database.Pool)

	authMW := auth.NewMiddleware(signer, userStore, redisClient)
	authSvc := auth.NewService(userStore, signer, redisClient, cfg.Development())
	tripSvc := trips.NewService(tripStore, kafkaClient)

	uploadHandler, err := uploads.NewHandler(cfg.UploadDir, authMW)
	if err != nil {
		log.Fatal(err)
	}

	// ── 7. WebSocket hub fed by trip events ──
	wsHub := tracking.NewHub(redisClient)
	wsHub.StartConsumers(ctx, kafkaClient)

	// ── 8. HTTP router ──
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"safemove"}`))
	})

	r.Mount("/auth", auth.NewHandler(authSvc, authMW).Routes())
	r.Mount("/trips", trips.NewHandler(tripSvc, authMW).Routes())
	r.Mount("/upload", uploadHandler.Routes())
	r.Handle("/uploads/*", uploadHandler.FileServer())
	r.Mount("/ws", wsHub.Routes())

	// ── 9. Start server ──
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		log.Printf("safemove listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// ── 10. Graceful shutdown ──
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	srv.Shutdown(shutCtx)
	cancel() // stop consumers
}
