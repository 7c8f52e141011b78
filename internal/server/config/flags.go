package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/flagx"
)

// parseFlags overlays values from command-line flags:
//
//	-a string   HTTP bind address (e.g. ":8000")
//	-d string   PostgreSQL DSN
//	-s string   token signing secret
//	-g string   signing algorithm (HS256, HS384, HS512)
//	-t int      access token validity, minutes
//	-b int      bcrypt cost
//	-l string   log level
//
// Only these flags are looked at; anything else in args is ignored.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-g", "-t", "-b", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.SigningAlgorithm, "g", config.SigningAlgorithm, "token signing algorithm")
	accessTokenMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*accessTokenMinutes) * time.Minute
		}
	})
	return nil
}
