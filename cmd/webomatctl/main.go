// Command webomatctl is the terminal client of the Webomat CRM.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"webomat/internal/apiclient"
	"webomat/internal/config"
	"webomat/internal/credentials"
	"webomat/internal/feedback"
	"webomat/internal/storage"
)

func main() {
	_ = godotenv.Load()
	app := newApp(loadEnv, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// env is everything a command needs. It is built once per run.
type env struct {
	client   *apiclient.Client
	uploader feedback.Uploader
	logger   cliLogger
	out      io.Writer
	errOut   io.Writer
}

type envFactory func(c *cli.Context) (*env, error)

type envKey struct{}

func getEnv(c *cli.Context) *env {
	return c.Context.Value(envKey{}).(*env)
}

func newApp(factory envFactory, out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:      "webomatctl",
		Usage:     "work with Webomat invoices, businesses and feedback from the terminal",
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log requests and refreshes"},
		},
		Before: func(c *cli.Context) error {
			e, err := factory(c)
			if err != nil {
				return err
			}
			e.out, e.errOut = out, errOut
			e.logger = newCLILogger(errOut, c.Bool("verbose"))
			c.Context = context.WithValue(c.Context, envKey{}, e)
			return nil
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			invoicesCommand(),
			businessCommand(),
			feedbackCommand(),
		},
	}
}

// loadEnv builds the client from configuration. Credentials live in Redis
// when REDIS_ADDR is set and in an encrypted file otherwise.
func loadEnv(c *cli.Context) (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	client, err := apiclient.New(apiclient.Options{
		BaseURL:   cfg.API.URL,
		Timeout:   time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		UserAgent: "webomatctl",
	}, store)
	if err != nil {
		return nil, err
	}

	e := &env{client: client}
	if cfg.StorageEnabled() {
		st, err := storage.New(storage.Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		e.uploader = st.Bucket(cfg.Storage.FeedbackBucket)
	}
	return e, nil
}

func openStore(cfg config.Config) (credentials.Store, error) {
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return credentials.NewRedis(rdb, cfg.Redis.Namespace), nil
	}

	path := cfg.Credentials.File
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config dir: %w", err)
		}
		path = filepath.Join(dir, "webomat", "credentials")
	}
	if cfg.Credentials.Passphrase == "" {
		return nil, errors.New("WEBOMAT_PASSPHRASE is required to unlock " + path)
	}
	return credentials.NewFile(path, cfg.Credentials.Passphrase)
}

// cliLogger stays quiet unless --verbose; failures the user must see are
// printed by the commands themselves.
type cliLogger struct {
	info *log.Logger
	err  *log.Logger
}

func newCLILogger(w io.Writer, verbose bool) cliLogger {
	if !verbose {
		w = io.Discard
	}
	return cliLogger{
		info: log.New(w, "INFO\t", log.Ltime),
		err:  log.New(w, "ERROR\t", log.Ltime),
	}
}

func (l cliLogger) Infof(format string, args ...interface{}) {
	l.info.Printf(format, args...)
}

func (l cliLogger) Errorf(format string, args ...interface{}) {
	l.err.Printf(format, args...)
}
