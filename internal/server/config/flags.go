package config

import (
	"flag"
	"os"
	"time"

	"schoolmedia/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l int      presigned link TTL, minutes
//	-o int      per-operation timeout, seconds
//	-n int      rollback delete retry attempts
//	-w int      rollback retry backoff, milliseconds
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in the units noted above and
//     then converted to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-u", "-p", "-b", "-g", "-e", "-l", "-o", "-n", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	presignTTL := fs.Int("l", int(config.PresignTTL.Minutes()), "presign_ttl (in minutes)")
	opTimeout := fs.Int("o", int(config.OpTimeout.Seconds()), "op_timeout (in seconds)")
	rollbackAttempts := fs.Int("n", int(config.RollbackRetryAttempts), "rollback_retry_attempts")
	rollbackBackoff := fs.Int("w", int(config.RollbackRetryBackoff.Milliseconds()), "rollback_retry_backoff (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.PresignTTL = time.Duration(*presignTTL) * time.Minute
	config.OpTimeout = time.Duration(*opTimeout) * time.Second
	config.RollbackRetryAttempts = uint64(*rollbackAttempts)
	config.RollbackRetryBackoff = time.Duration(*rollbackBackoff) * time.Millisecond
}
