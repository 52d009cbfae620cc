package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/nnacademy/academy-api/internal/config"
	"github.com/nnacademy/academy-api/internal/database"
	"github.com/nnacademy/academy-api/internal/handler"
	"github.com/nnacademy/academy-api/internal/jobs"
	"github.com/nnacademy/academy-api/internal/media"
	"github.com/nnacademy/academy-api/internal/middleware"
	"github.com/nnacademy/academy-api/internal/otp"
	"github.com/nnacademy/academy-api/internal/payment"
	"github.com/nnacademy/academy-api/internal/queue"
	"github.com/nnacademy/academy-api/internal/repository"
	"github.com/nnacademy/academy-api/internal/router"
	"github.com/nnacademy/academy-api/internal/service"
	"github.com/nnacademy/academy-api/internal/sms"
	"github.com/nnacademy/academy-api/internal/utils"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	log.SetLevel(parseLevel(cfg.LogLevel))
	log.SetHeader("${time_rfc3339} ${level} ${short_file}:${line}")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient()
	var codes otp.Store
	if rdb != nil {
		defer rdb.Close()
		codes = otp.NewRedisStore(rdb, "otp")
	} else {
		log.Warnf("redis unavailable: using in-process otp store, cache and rate limits disabled")
		codes = otp.NewMemoryStore()
	}

	var sender sms.Sender
	switch {
	case cfg.SMS.AccountSID != "":
		sender = sms.NewTwilioSender(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.From)
	case cfg.Env == "dev" || cfg.Env == "test":
		log.Warnf("twilio not configured: sms is not delivered (APP_ENV=%s)", cfg.Env)
		sender = sms.LogSender{}
	default:
		log.Fatalf("TWILIO_ACCOUNT_SID is required when APP_ENV=%s", cfg.Env)
	}

	if cfg.Payment.StripeKey == "" {
		log.Warnf("STRIPE_API_KEY not set: checkout will fail upstream")
	}
	gateway := payment.NewStripeGateway(cfg.Payment.StripeKey, cfg.Payment.WebhookSecret)

	var signer media.Signer = media.Passthrough{}
	if cfg.Media.AccessKey != "" {
		s3, err := media.NewS3Signer(media.S3Config{
			Region:    cfg.Media.Region,
			Endpoint:  cfg.Media.Endpoint,
			AccessKey: cfg.Media.AccessKey,
			SecretKey: cfg.Media.SecretKey,
			TTL:       cfg.Media.URLTTL,
		})
		if err != nil {
			log.Fatalf("media signer: %v", err)
		}
		signer = s3
	}

	tokens := utils.TokenSigner{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    time.Duration(cfg.AccessTTLMin) * time.Minute,
	}

	users := repository.NewUserRepo(db)
	refresh := repository.NewTokenRepo(db)
	courses := repository.NewCourseRepo(db)
	enrollments := repository.NewEnrollmentRepo(db)
	payments := repository.NewPaymentRepo(db)
	classes := repository.NewLiveClassRepo(db)
	certs := repository.NewCertificateRepo(db)
	admins := repository.NewAdminRepo(db)

	events := queue.NewPublisher(cfg.AMQPURL)
	consumer := &queue.Consumer{URL: cfg.AMQPURL, Dir: "logs"}
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("enrollment consumer: %v", err)
		}
	}()

	auth := service.NewAuth(service.AuthConfig{
		CodeTTL:            cfg.OTP.TTL,
		DefaultCountryCode: cfg.OTP.DefaultCountryCode,
		ExposeCode:         cfg.OTP.ExposeCode,
		SenderName:         cfg.OTP.SenderName,
		RefreshTTLDays:     cfg.RefreshTTLDays,
	}, codes, sender, users, refresh, tokens)
	if cfg.OTP.ExposeCode {
		log.Warnf("OTP_EXPOSE_CODE is on: login codes are returned in API responses")
	}
	checkout := service.NewCheckout(courses, enrollments, payments, gateway, events)
	progress := service.NewProgress(courses, enrollments, certs)
	booking := service.NewBooking(classes)
	catalog := service.NewCatalog(courses, enrollments, signer)

	scheduler := jobs.NewManager(cfg.SweepCron, checkout, refresh)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("jobs: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(parseLevel(cfg.LogLevel))
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.LoggerWithConfig(echomw.LoggerConfig{
		Format: `${time_rfc3339} ${id} ${remote_ip} ${method} ${uri} ${status} ${latency_human}` + "\n",
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cacheCfg := config.LoadCacheConfig()
	router.RegisterRoutes(e, handler.Health(db), handler.NewPolicyHandler(handler.PolicyInfo{
		Academy: cfg.OTP.SenderName,
		Email:   envOr("SUPPORT_EMAIL", "support@nnmakeupandgrooming.com"),
		Phone:   envOr("SUPPORT_PHONE", "+91 9248444687"),
		Address: envOr("SUPPORT_ADDRESS", "Hyderabad, Telangana, India"),
		Updated: envOr("POLICY_UPDATED", "October 29, 2025"),
	}))
	otpLimit := middleware.NewTokenBucket(config.LoadOTPRateLimitConfig(), rdb)
	router.RegisterAuth(e, handler.NewAuthHandler(auth, users, tokens), tokens, otpLimit)
	router.RegisterStudent(e, router.StudentHandlers{
		Catalog:      handler.NewCatalogHandler(courses, enrollments, progress, catalog),
		Checkout:     handler.NewCheckoutHandler(checkout),
		LiveClasses:  handler.NewLiveClassHandler(classes, booking),
		Certificates: handler.NewCertificateHandler(certs),
	}, tokens, middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterAdmin(e, &handler.AdminHandler{
		Admins:      admins,
		Signer:      tokens,
		Courses:     courses,
		Classes:     classes,
		Grants:      checkout,
		CourseCount: courses,
		UserCount:   users,
		EnrollCount: enrollments,
		Revenue:     payments,
		CatalogChanged: func(ctx context.Context) {
			if err := middleware.PurgeCache(ctx, rdb, cacheCfg.Prefix); err != nil {
				log.Warnf("cache purge: %v", err)
			}
		},
		DefaultCurrency: cfg.Payment.Currency,
	}, tokens, otpLimit)

	go func() {
		addr := ":" + cfg.Port
		log.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
	scheduler.Stop(shutdownCtx)
}

func parseLevel(s string) log.Lvl {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return log.DEBUG
	case "WARN":
		return log.WARN
	case "ERROR":
		return log.ERROR
	case "OFF":
		return log.OFF
	}
	return log.INFO
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
