package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/vowsuite/vowsuite/internal/announce"
	"github.com/vowsuite/vowsuite/internal/api"
	"github.com/vowsuite/vowsuite/internal/auth"
	"github.com/vowsuite/vowsuite/internal/config"
	"github.com/vowsuite/vowsuite/internal/domains"
	"github.com/vowsuite/vowsuite/internal/event"
	"github.com/vowsuite/vowsuite/internal/gallery"
	"github.com/vowsuite/vowsuite/internal/guest"
	"github.com/vowsuite/vowsuite/internal/pkg/logger"
	"github.com/vowsuite/vowsuite/internal/tenant"
	"github.com/vowsuite/vowsuite/internal/wedding"
)

// checkPortAvailable verifies the target port is not already in use, so
// a stale process fails the boot loudly instead of serving half the
// routes.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Database ping failed: %v", err)
	}
	pingCancel()
	log.Println("Database connected")

	// Redis is optional: without it, tenant lookups skip the cache and
	// the dispatcher runs unlocked (fine for a single instance).
	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed: %v — continuing without cache", err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s", cfg.Redis.URL)
		}
		pingCancel()
	}

	// Tenant resolution: SQL store, read-through cache when Redis is up.
	var tenantStore tenant.Store = tenant.NewSQLStore(db)
	if redisClient != nil {
		tenantStore = tenant.NewCachedStore(tenantStore, redisClient, cfg.Resolver.CacheTTL())
	}
	resolver := tenant.NewResolver(cfg.Resolver, tenantStore)
	log.Printf("Tenant resolver ready (mode=%s, platform=%s)",
		cfg.Resolver.DeploymentMode, cfg.Resolver.PlatformDomain)

	weddings := wedding.NewStore(db)
	guests := guest.NewStore(db)
	events := event.NewStore(db)

	// Auth (Google OAuth) when configured.
	var authManager *auth.Manager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		baseURL := fmt.Sprintf("http://%s:%d", host, port)
		if cfg.Resolver.PlatformDomain != "" && !cfg.Resolver.Development {
			baseURL = "https://" + cfg.Resolver.PlatformDomain
		}
		if envURL := os.Getenv("AUTH_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
		authManager = auth.NewManager(&cfg.Auth, auth.NewSQLCustomerStore(db), baseURL)

		// Pre-flight: surface OAuth misconfiguration at boot, not at the
		// first customer sign-in.
		if err := authManager.ValidateCredentials(ctx); err != nil {
			log.Fatalf("OAuth pre-flight FAILED: %v", err)
		}
		authManager.CleanupExpiredSessions()
		log.Printf("Google OAuth enabled (callback: %s/auth/callback)", baseURL)
	} else {
		log.Println("Authentication disabled")
	}

	// Custom domains: DNS verification always; ACM/CloudFront
	// provisioning only when configured.
	var provisioner *domains.Provisioner
	if cfg.Domains.ProvisionAWS {
		provisioner, err = domains.NewProvisioner(ctx, db, cfg.Domains)
		if err != nil {
			log.Printf("Warning: AWS provisioner init failed: %v — domains stay unprovisioned", err)
		} else {
			log.Println("AWS SSL provisioning enabled for custom domains")
		}
	}
	domainsSvc := domains.NewService(db, cfg.Resolver.PlatformDomain, provisioner)

	var gallerySvc *gallery.Service
	if cfg.Gallery.Enabled && cfg.Gallery.S3Bucket != "" {
		gallerySvc, err = gallery.NewServiceFromConfig(ctx, db, cfg.Gallery)
		if err != nil {
			log.Printf("Warning: gallery init failed: %v — uploads disabled", err)
		} else {
			log.Printf("Gallery enabled (bucket=%s)", cfg.Gallery.S3Bucket)
		}
	}

	// Announcement fan-out.
	announceStore := announce.NewSQLStore(db)
	if cfg.Announce.Enabled {
		channels := map[string]announce.Channel{}
		if cfg.Email.Enabled {
			emailCh, err := announce.NewEmailChannel(ctx, cfg.Email)
			if err != nil {
				log.Printf("Warning: email channel init failed: %v", err)
			} else {
				channels[guest.ChannelEmail] = emailCh
			}
		}
		if cfg.SMS.Enabled {
			channels[guest.ChannelSMS] = announce.NewSMSChannel(cfg.SMS)
		}
		if cfg.WhatsApp.Enabled {
			channels[guest.ChannelWhatsApp] = announce.NewWhatsAppChannel(cfg.WhatsApp)
		}

		throttle := announce.NewThrottle(redisClient, cfg.Announce.PerChannelPerMinute)
		dispatcher := announce.NewDispatcher(announceStore, announce.NewTemplateService(),
			channels, throttle, redisClient, cfg.Announce)
		go dispatcher.Run(ctx)
		log.Printf("Announcement dispatcher started (channels=%d, batch=%d)",
			len(channels), cfg.Announce.BatchSize)
	}

	handlers := api.NewHandlers(db, redisClient, cfg, weddings, guests, events,
		gallerySvc, domainsSvc, announceStore)
	router := api.SetupRoutes(handlers, authManager, resolver, tenantStore)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("VowSuite server listening on %s:%d", host, port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done
	log.Println("Shutting down...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
