package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Env struct {
	AppAddr string
	GinMode string

	// DataMode selects the trip source implementation: "mock" or "live".
	DataMode string

	DBUser string
	DBPass string
	DBHost string
	DBName string

	JWTSecret string

	HoldTTL         time.Duration
	CacheMaxAgeDays int

	// UpstreamTicketsURL is the ticket API the offline gateway fronts.
	UpstreamTicketsURL string
	GatewayAddr        string
}

func LoadEnv() Env {
	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	dataMode := strings.ToLower(strings.TrimSpace(os.Getenv("DATA_MODE")))
	if dataMode != "live" {
		dataMode = "mock"
	}

	holdTTL := 10 * time.Minute
	if v := strings.TrimSpace(os.Getenv("HOLD_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			holdTTL = d
		}
	}

	cacheDays := 30
	if v := strings.TrimSpace(os.Getenv("CACHE_MAX_AGE_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cacheDays = n
		}
	}

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		secret = "super-secret-key-change-me"
	}

	gatewayAddr := strings.TrimSpace(os.Getenv("GATEWAY_ADDR"))
	if gatewayAddr == "" {
		gatewayAddr = ":8081"
	}

	return Env{
		AppAddr:            appAddr,
		GinMode:            strings.TrimSpace(os.Getenv("GIN_MODE")),
		DataMode:           dataMode,
		DBUser:             envOr("DB_USER", "root"),
		DBPass:             os.Getenv("DB_PASS"),
		DBHost:             envOr("DB_HOST", "127.0.0.1:3306"),
		DBName:             envOr("DB_NAME", "fasobus"),
		JWTSecret:          secret,
		HoldTTL:            holdTTL,
		CacheMaxAgeDays:    cacheDays,
		UpstreamTicketsURL: envOr("UPSTREAM_TICKETS_URL", "http://localhost:8080"),
		GatewayAddr:        gatewayAddr,
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
