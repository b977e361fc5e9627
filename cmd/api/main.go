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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"orga/internal/chatbot"
	"orga/internal/config"
	"orga/internal/db"
	"orga/internal/db/migrations"
	"orga/internal/email"
	apihttp "orga/internal/http"
	"orga/internal/logging"
	"orga/internal/metrics"
	"orga/internal/repository"
	"orga/internal/service"
	"orga/internal/tracing"
)

type stores struct {
	tenants       repository.TenantRepository
	users         repository.UserRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	shutdownTracer, err := tracing.InitTracer(ctx, "orga-api", cfg.OTelEndpoint, logger)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		shutdownTracer = func() {}
	}
	defer shutdownTracer()

	metrics.Register()

	var (
		st   stores
		pool *pgxpool.Pool
	)
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory store (data is lost on restart)")
		mem := repository.NewMemoryStore()
		st = stores{mem.Tenants(), mem.Users(), mem.Conversations(), mem.Messages()}
	} else {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Ping(ctx, pool); err != nil {
			logger.Fatal("db ping", zap.Error(err))
		}
		if err := db.Migrate(ctx, pool, migrations.FS, logger); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		st = stores{
			tenants:       repository.NewPgTenantRepository(pool),
			users:         repository.NewPgUserRepository(pool),
			conversations: repository.NewPgConversationRepository(pool),
			messages:      repository.NewPgMessageRepository(pool),
		}
	}

	var (
		loginLimiter service.LoginRateLimiter
		tokenStore   service.RefreshTokenStore
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory limiter and token store", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, cfg.LoginRateWindow, cfg.LoginRateLimit, logger)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}
	if loginLimiter == nil {
		loginLimiter = service.NewMemoryLoginRateLimiter(cfg.LoginRateWindow, cfg.LoginRateLimit)
	}

	mailer := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			mailer = sender
		}
	}

	bot := chatbot.NewHTTPClient(cfg.ChatbotBaseURL, cfg.ChatbotConnectTimeout, cfg.ChatbotResponseTimeout, logger.Named("chatbot"))

	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL(), tokenStore)
	usageSvc := service.NewUsageService(st.messages, st.users, cfg.Location())
	svcs := apihttp.Services{
		Auth:        service.NewAuthService(logger, st.users, st.tenants, jwtSvc, loginLimiter),
		JWT:         jwtSvc,
		Chat:        service.NewChatService(logger, st.tenants, st.conversations, st.messages, usageSvc, bot),
		SuperAdmin:  service.NewSuperAdminService(logger, st.tenants, st.users),
		TenantAdmin: service.NewTenantAdminService(logger, st.tenants, st.users, usageSvc, mailer),
	}

	var pinger apihttp.Pinger
	if pool != nil {
		pinger = pool
	}
	router := apihttp.NewRouter(logger, apihttp.NewHandlers(logger, svcs, pinger))

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
