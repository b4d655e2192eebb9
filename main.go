package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/phillip/riseandserve-go/broker"
	config "github.com/phillip/riseandserve-go/config"
	controllers "github.com/phillip/riseandserve-go/controllers"
	middleware "github.com/phillip/riseandserve-go/middleware"
	"github.com/phillip/riseandserve-go/realtime"
	"github.com/phillip/riseandserve-go/repository"
	routes "github.com/phillip/riseandserve-go/routes"
	services "github.com/phillip/riseandserve-go/services"
	utils "github.com/phillip/riseandserve-go/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := cfg.Logger
	defer log.Sync() //nolint:errcheck

	if err := run(cfg); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	log := cfg.Logger
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventStore, chatStore, closeStore, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var publisher broker.Publisher = broker.NewLogPublisher(log)
	if cfg.RabbitMQURI != "" {
		amqpPub, err := broker.NewAMQPPublisher(cfg.RabbitMQURI, cfg.RabbitMQExchange, log)
		if err != nil {
			log.Warn("rabbitmq unavailable, domain events will only be logged", zap.Error(err))
		} else {
			publisher = amqpPub
		}
	}
	defer publisher.Close()

	hub := realtime.NewHub(log)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, chat fan-out stays local", zap.Error(err))
		} else {
			hub.UseRedis(rdb)
			go func() {
				if err := hub.RunRelay(ctx); err != nil {
					log.Error("chat relay stopped", zap.Error(err))
				}
			}()
		}
	}

	deps := services.Deps{
		Clock:        time.Now,
		Logger:       log,
		Publisher:    publisher,
		StoreTimeout: cfg.StoreTimeout,
	}

	chats := services.NewChatService(chatStore, hub, deps)
	hooks := []services.DeleteHook{chats.PurgeEvent}

	svc := &controllers.Services{Chats: chats, Hub: hub, Clock: time.Now}
	if cfg.CloudinaryEnabled() {
		thumbs, err := utils.NewThumbnails(cfg)
		if err != nil {
			return err
		}
		svc.Thumbnails = thumbs
		hooks = append(hooks, thumbs.DeleteHook)
	}

	var notifier services.JoinNotifier
	if cfg.EmailEnabled() {
		notifier = utils.NewMailer(cfg)
	}

	svc.Events = services.NewEventService(eventStore, deps, hooks...)
	svc.Queries = services.NewQueryService(eventStore, deps)
	svc.Participation = services.NewParticipationService(eventStore, deps, notifier)
	svc.Passes = services.NewPassService(eventStore, deps)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", "Cache-Control"},
		ExposeHeaders:    []string{"Content-Length", "ETag", "Retry-After", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.SetupRoutes(r, cfg, svc)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStores(ctx context.Context, cfg *config.Config) (repository.EventStore, repository.ChatStore, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		cfg.Logger.Warn("using in-memory store, data is lost on restart")
		return repository.NewMemoryEventStore(), repository.NewMemoryChatStore(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.DBName)
	events := repository.NewMongoEventStore(db)
	chats := repository.NewMongoChatStore(db)
	if err := events.EnsureIndexes(connectCtx); err != nil {
		return nil, nil, nil, err
	}
	if err := chats.EnsureIndexes(connectCtx); err != nil {
		return nil, nil, nil, err
	}

	closeFn := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}
	return events, chats, closeFn, nil
}
