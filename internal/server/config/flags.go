package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/peerlink/internal/flagx"
)

var serverFlags = []string{
	"-a", "-m", "-driver", "-d", "-s", "-k", "-t",
	"-u", "-p", "-b", "-g", "-e", "-blob",
	"-n", "-log-format", "-log-level", "-origins", "-rate", "-burst",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        HTTP bind address (e.g., ":8080")
//	-m string        gRPC health bind address (e.g., ":50051")
//	-driver string   database driver: pgx or sqlite
//	-d string        database DSN
//	-s string        JWT HMAC secret key
//	-k string        unique key digest secret
//	-t int           access token validity, minutes
//	-u string        S3 root user
//	-p string        S3 root password
//	-b string        S3 bucket name
//	-g string        S3 region
//	-e string        S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-blob string     blob backend: s3, minio or memory
//	-n string        NATS URL, empty disables events
//	-log-format      json or console
//	-log-level       debug, info, warn, error
//	-origins         comma separated CORS origins
//	-rate float      connection requests per second per user
//	-burst int       connection request burst per user
//
// os.Args is filtered with flagx.FilterArgs first, so -c/-config and flags of
// other components do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run HTTP API")
	fs.StringVar(&config.GRPCHealthAddr, "m", config.GRPCHealthAddr, "address and port to run gRPC health service")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.KeySecret, "k", config.KeySecret, "unique key digest secret")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.BlobBackend, "blob", config.BlobBackend, "blob backend (s3|minio|memory)")

	fs.StringVar(&config.NATSURL, "n", config.NATSURL, "NATS URL")
	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "log format (json|console)")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	origins := fs.String("origins", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins")
	fs.Float64Var(&config.KeyLookupRate, "rate", config.KeyLookupRate, "connection requests per second")
	fs.IntVar(&config.KeyLookupBurst, "burst", config.KeyLookupBurst, "connection request burst")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only explicitly given flags override, so a file value like "90s" is not truncated to minutes
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "origins":
			config.AllowedOrigins = splitList(*origins)
		}
	})
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
