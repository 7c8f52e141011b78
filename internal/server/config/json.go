package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/expensekeeper/internal/flagx"
	"github.com/dmitrijs2005/expensekeeper/internal/timex"
)

// JSONConfig is the on-disk shape of the config file. Durations accept
// either "30m"-style strings or integer nanoseconds. Absent fields keep the
// values already in Config.
type JSONConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	SigningAlgorithm            *string         `json:"signing_algorithm"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	BcryptCost                  *int            `json:"bcrypt_cost"`
	ShutdownTimeout             *timex.Duration `json:"shutdown_timeout"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJSON overlays values from the file given by -c/-config, if any.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JSONConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SigningAlgorithm, c.SigningAlgorithm)
	setString(&config.LogLevel, c.LogLevel)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
