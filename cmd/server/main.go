package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"ai-character-chat/backend/ai"
	"ai-character-chat/backend/internal/api"
	"ai-character-chat/backend/internal/jobs"
	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/repository"
	"ai-character-chat/backend/internal/session"
	"ai-character-chat/backend/internal/service"
	"ai-character-chat/backend/pkg/cache"
	"ai-character-chat/backend/pkg/config"
	"ai-character-chat/backend/pkg/logger"
	"ai-character-chat/backend/pkg/middleware"
)

func main() {
	godotenv.Load()

	cfg := config.New()

	log := logger.New(logger.Config{
		Level: cfg.Logging.Level,
		JSON:  cfg.Logging.Format != "text",
	})
	logger.SetGlobal(log)

	log.Info("starting server", "env", cfg.Server.Env, "port", cfg.Server.Port)

	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "failed to initialize database")
		os.Exit(1)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Character{}, &models.ChatMessage{}, &models.Story{}); err != nil {
		log.LogError(err, "failed to migrate database")
		os.Exit(1)
	}

	// Composite index for the (user, character, since) history query
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_chat_messages_conversation ON chat_messages(user_id, character_id, created_at)").Error; err != nil {
		log.LogError(err, "failed to create conversation index")
	}

	// Repositories
	users := repository.NewUserRepository(db)
	characters := repository.NewCharacterRepository(db)
	messages := repository.NewMessageRepository(db)
	stories := repository.NewStoryRepository(db)

	// Conversation cache
	conversationCache := cache.New(cfg.Cache.TTL, cfg.Cache.MaxSize, cfg.Cache.PurgeWindow)
	defer conversationCache.Close()

	// Session markers: Redis when configured, in-process otherwise
	var markers session.MarkerStore
	if cfg.Session.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		markers = session.NewRedisStore(client, cfg.Session.TTL)
		log.Info("session markers stored in redis", "addr", cfg.Session.RedisAddr)
	} else {
		markers = session.NewMemoryStore(cfg.Session.TTL)
		log.Info("session markers stored in process memory")
	}

	// Inference client
	inference := ai.NewClient(ai.Options{
		BaseURL:   cfg.Inference.BaseURL,
		ChatPath:  cfg.Inference.ChatPath,
		EmbedPath: cfg.Inference.EmbedPath,
		Timeout:   cfg.Inference.Timeout,
	})

	// Embedding pipeline
	embedder := jobs.NewEmbedder(inference, stories, log,
		cfg.Embedding.Workers, cfg.Embedding.QueueSize, cfg.Embedding.JobTimeout)
	defer embedder.Close()

	// Services
	chatService := service.NewChatService(users, characters, messages, conversationCache, markers, inference, log)
	storyService := service.NewStoryService(stories, characters, embedder, inference, log)
	characterService := service.NewCharacterService(characters)
	userService := service.NewUserService(users)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Security.RateLimit),
		Burst:          cfg.Security.RateLimitBurst,
		ExpiryDuration: time.Hour,
	})

	router := api.NewRouter(api.Controllers{
		Chat:      chatService,
		Story:     storyService,
		Character: characterService,
		User:      userService,
	}, limiter)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "forced shutdown")
	}
}
