// Command keyscope manages saved connections to redis-compatible servers and
// browses their key space.
//
//	keyscope list
//	keyscope show NAME
//	keyscope save NAME [connection flags]
//	keyscope delete NAME
//	keyscope test [NAME] [connection flags]
//	keyscope scan [NAME] [-pattern P] [-paginate=false] [-pages N] [connection flags]
//	keyscope info [NAME] [connection flags]
//	keyscope set KEY VALUE
//
// The application home is $KEYSCOPE_HOME, or ~/.keyscope. A .env file in the
// working directory is loaded first.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/TykTechnologies/keyscope/logger"
	"github.com/TykTechnologies/keyscope/metrics"
	"github.com/TykTechnologies/keyscope/model"
)

const (
	envHome     = "KEYSCOPE_HOME"
	envEnv      = "KEYSCOPE_ENV"
	envPassword = "KEYSCOPE_PASSWORD"
	envMetrics  = "KEYSCOPE_METRICS_ADDR"
)

func main() {
	// a missing .env is fine, the process environment is used as is
	_ = godotenv.Load()

	log, err := logger.New("keyscope", os.Getenv(envEnv))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, log); err != nil {
		fmt.Fprintln(os.Stderr, "keyscope:", err)
		stop()
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, errUsage) {
		return 2
	}

	return 1
}

func run(ctx context.Context, args []string, stdout io.Writer, log *zap.Logger) error {
	if len(args) == 0 {
		return usage(stdout)
	}

	home, err := homeDir()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	if addr := os.Getenv(envMetrics); addr != "" {
		srv := &http.Server{Addr: addr, Handler: metrics.Handler(reg)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	app := &app{
		home:   home,
		stdout: stdout,
		log:    log,
		opts:   []model.Option{model.WithLogger(log), model.WithRecorder(m)},
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "list":
		return app.list(rest)
	case "show":
		return app.show(rest)
	case "save":
		return app.save(rest)
	case "delete":
		return app.delete(rest)
	case "test":
		return app.test(ctx, rest)
	case "scan":
		return app.scan(ctx, rest)
	case "info":
		return app.info(ctx, rest)
	case "set":
		return app.set(rest)
	case "help", "-h", "-help", "--help":
		return usage(stdout)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func homeDir() (string, error) {
	if dir := os.Getenv(envHome); dir != "" {
		return dir, nil
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}

	return filepath.Join(userHome, ".keyscope"), nil
}

func usage(w io.Writer) error {
	fmt.Fprintln(w, `usage: keyscope <command> [arguments]

commands:
  list                      list saved connections
  show NAME                 print a saved connection
  save NAME [flags]         create or update a saved connection
  delete NAME               delete a saved connection
  test [NAME] [flags]       check that the server answers PING
  scan [NAME] [flags]       list keys matching -pattern
  info [NAME] [flags]       print the key count and INFO report
  set KEY VALUE             change a global setting (scan.page_size, scan.paginate)

Run "keyscope <command> -h" for the flags of a command.`)

	return nil
}
