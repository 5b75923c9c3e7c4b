package config

import (
	"flag"
	"os"
	"time"

	"smartspend/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-m string   AMQP broker URL; empty logs notifications instead
//	-b string   public base URL for verify / reset links
//	-s string   HMAC secret key for session credentials
//	-n int      concurrent session cap per account
//	-r int      reset token validity, hours
//	-w int      token sweep interval, minutes
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration flags
// are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-m", "-b", "-s", "-n", "-r", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AMQPURL, "m", config.AMQPURL, "AMQP broker URL")
	fs.StringVar(&config.BaseURL, "b", config.BaseURL, "public base URL")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.IntVar(&config.SessionMax, "n", config.SessionMax, "session cap per account")

	resetTTLHours := fs.Int("r", int(config.ResetTokenTTL.Hours()), "reset token validity (in hours)")
	sweepMinutes := fs.Int("w", int(config.SweepInterval.Minutes()), "token sweep interval (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ResetTokenTTL = time.Duration(*resetTTLHours) * time.Hour
	config.SweepInterval = time.Duration(*sweepMinutes) * time.Minute
}
