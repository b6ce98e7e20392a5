package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sneldb/sneldb.go"
	"github.com/sneldb/sneldb.go/pkg/arrowipc"
	"github.com/sneldb/sneldb.go/pkg/logger"
	zerologadapter "github.com/sneldb/sneldb.go/pkg/logger/zerolog"
)

var (
	flagURL     string
	flagUser    string
	flagSecret  string
	flagTimeout time.Duration
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "sneldb",
	Short:         "SnelDB command-line client",
	Long:          "sneldb sends commands to a SnelDB server over tcp, tls, unix, http or ws and prints the normalized rows.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "server URL, e.g. tcp://localhost:8086 or http://localhost:8085")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "user id for command signing")
	rootCmd.PersistentFlags().StringVar(&flagSecret, "secret", "", "secret key for command signing")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "read timeout (default 60s)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.sneldb.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log client diagnostics to stderr")
}

// fileConfig mirrors ~/.sneldb.toml. Flags win over file values.
type fileConfig struct {
	URL            string `toml:"url"`
	UserID         string `toml:"user_id"`
	SecretKey      string `toml:"secret_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

func loadFileConfig() (fileConfig, error) {
	var cfg fileConfig
	path := flagConfig
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".sneldb.toml")
		if _, err := os.Stat(path); err != nil {
			return cfg, nil
		}
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	return cfg, nil
}

func newClient() (*sneldb.Client, error) {
	file, err := loadFileConfig()
	if err != nil {
		return nil, err
	}

	url := flagURL
	if url == "" {
		url = file.URL
	}
	if url == "" {
		return nil, fmt.Errorf("no server URL: pass --url or set url in the config file")
	}
	user := flagUser
	if user == "" {
		user = file.UserID
	}
	secret := flagSecret
	if secret == "" {
		secret = file.SecretKey
	}
	timeout := flagTimeout
	if timeout == 0 && file.TimeoutSeconds > 0 {
		timeout = time.Duration(file.TimeoutSeconds) * time.Second
	}

	var log logger.Logger
	if flagVerbose {
		zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		log = zerologadapter.New(zl)
	}

	return sneldb.New(sneldb.Config{
		BaseURL:      url,
		UserID:       user,
		SecretKey:    secret,
		ReadTimeout:  timeout,
		ArrowDecoder: arrowipc.NewDecoder(),
		Logger:       log,
	})
}
