package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// parseEnv overlays values from environment variables. Variable names follow
// the deployment's .env file:
//
//	SECRET_KEY, ALGORITHM, ACCESS_TOKEN_EXPIRE_MINUTES,
//	DATABASE_DSN (or POSTGRES_USER/PASSWORD/DB/HOST/PORT),
//	HTTP_ADDR, BCRYPT_COST, SHUTDOWN_TIMEOUT, LOG_LEVEL
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return "", false
		}
		return v, true
	}

	if v, ok := get("SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := get("ALGORITHM"); ok {
		config.SigningAlgorithm = v
	}
	if v, ok := get("ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
		}
		config.AccessTokenValidityDuration = time.Duration(minutes) * time.Minute
	}
	if v, ok := get("HTTP_ADDR"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := get("BCRYPT_COST"); ok {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		config.BcryptCost = cost
	}
	if v, ok := get("SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		config.ShutdownTimeout = d
	}
	if v, ok := get("LOG_LEVEL"); ok {
		config.LogLevel = v
	}

	if v, ok := get("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	} else if user, ok := get("POSTGRES_USER"); ok {
		config.DatabaseDSN = postgresDSN(user, lookup)
	}
	return nil
}

func postgresDSN(user string, lookup func(string) (string, bool)) string {
	value := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	password, _ := lookup("POSTGRES_PASSWORD")
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(value("POSTGRES_HOST", "db"), value("POSTGRES_PORT", "5432")),
		Path:     "/" + value("POSTGRES_DB", "expenses"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
