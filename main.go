package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/AmyVerse/ayursutra-web-sub001/authentication"
	"github.com/AmyVerse/ayursutra-web-sub001/configuration"
	"github.com/AmyVerse/ayursutra-web-sub001/controllers"
	"github.com/AmyVerse/ayursutra-web-sub001/middleware"
	"github.com/AmyVerse/ayursutra-web-sub001/models"
	"github.com/AmyVerse/ayursutra-web-sub001/routes"
	"github.com/AmyVerse/ayursutra-web-sub001/services"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	cfg := configuration.Load()

	log, err := configuration.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := configuration.ConfigDB(cfg, log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	rdb, err := configuration.InitRedis(ctx, cfg, log)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	handler, err := buildHandler(cfg, log, db, rdb)
	if err != nil {
		log.Fatal("wiring", zap.Error(err))
	}

	limiter := middleware.NewIPLimiter(rate.Limit(cfg.ProxyRatePerSec), cfg.ProxyBurst)
	go limiter.Sweep(ctx, sweepInterval)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: routes.SetupRouter(handler, routes.Options{
			InternalAPIKey: cfg.InternalAPIKey,
			ProxyLimiter:   limiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped")
}

func buildHandler(cfg configuration.Config, log *zap.Logger, db *gorm.DB, rdb *redis.Client) (*controllers.Handler, error) {
	issuer := authentication.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL)
	ids := services.NewAyursutraIDService(db, log)

	senders := map[models.OTPChannel]authentication.OTPSender{}
	if cfg.SMTP.Host != "" {
		senders[models.ChannelEmail] = authentication.NewEmailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, cfg.SMTP.From)
	} else {
		log.Warn("SMTP not configured, email OTP disabled")
	}
	if cfg.Twilio.AccountSID != "" {
		senders[models.ChannelSMS] = authentication.NewSMSSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From)
	} else {
		log.Warn("Twilio not configured, SMS OTP disabled")
	}
	limiter := services.NewRedisOTPLimiter(rdb, cfg.OTP.Window, cfg.OTP.MaxPerWindow, cfg.OTP.Cooldown)

	realtime, err := services.NewRealtimeService(cfg.AblyAPIKey, log)
	if err != nil {
		return nil, err
	}
	if cfg.AblyAPIKey == "" {
		log.Warn("ABLY_API_KEY not set, realtime tokens disabled")
	}

	return &controllers.Handler{
		Log:           log,
		Bridge:        authentication.NewBridge(db, issuer),
		Users:         services.NewUserService(db, ids, log),
		IDs:           ids,
		OTP:           services.NewOTPService(db, senders, limiter, cfg.OTP.TTL, cfg.OTP.MaxAttempts, log),
		Notifications: services.NewNotificationService(db),
		Realtime:      realtime,
		Proxy:         services.NewAIProxy(cfg.AIServiceURL, cfg.AIServiceTimeout, log),
		DB:            db,
		Redis:         rdb,
		CookieSecure:  cfg.CookieSecure,
	}, nil
}
