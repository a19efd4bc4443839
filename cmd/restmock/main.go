// Package main is an application entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/Semior001/restmock/pkg/discovery"
	"github.com/Semior001/restmock/pkg/discovery/fileprovider"
	"github.com/Semior001/restmock/pkg/dispatch"
	"github.com/Semior001/restmock/pkg/resource"
	"github.com/Semior001/restmock/pkg/server"
	"github.com/cappuccinotm/slogx"
	"github.com/cappuccinotm/slogx/slogm"
	"github.com/jessevdk/go-flags"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

type options struct {
	Addr string `short:"a" long:"addr" env:"ADDR" default:":8080" description:"Address to listen on"`
	File struct {
		Name          string        `long:"name"           env:"NAME"           default:"restmock.yml" description:"Config file name, .xml files are read in the XML format"`
		CheckInterval time.Duration `long:"check-interval" env:"CHECK_INTERVAL" default:"3s"           description:"Check interval for the config file"                     `
		Delay         time.Duration `long:"delay"          env:"DELAY"          default:"500ms"        description:"Delay before applying the changes"                      `
	} `group:"file" namespace:"file" env-namespace:"FILE"`
	Stdin       bool   `long:"stdin"         env:"STDIN"                         description:"Read the config from stdin instead of the file"`
	Resources   string `long:"resources"     env:"RESOURCES"     default:"."     description:"Directory to resolve resource locations against"`
	MaxBodySize int64  `long:"max-body-size" env:"MAX_BODY_SIZE" default:"1048576" description:"Maximum size of the request body in bytes, 0 to disable"`
	Metrics     bool   `long:"metrics"       env:"METRICS"                       description:"Serve metrics and health endpoints under /_restmock"`
	Debug       bool   `long:"debug"         env:"DEBUG"                         description:"Enable debug mode"`
}

var version = "unknown"

func getVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

func main() {
	_, _ = fmt.Fprintf(os.Stderr, "restmock %s\n", getVersion())

	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	setupLog(opts.Debug, os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { // catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		sig := <-stop
		slog.Warn("caught signal", slog.Any("signal", sig))
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		slog.Error("failed to start restmock", slogx.Error(err))
		os.Exit(1)
	}
}

func setupLog(debug bool, w io.Writer) {
	defer slog.Info("prepared logger", slog.Bool("debug", debug))
	handlerOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	handler := slog.Handler(slog.NewJSONHandler(w, handlerOpts))

	if debug {
		handlerOpts.Level = slog.LevelDebug
		handlerOpts.AddSource = true
		handlerOpts.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
			// shorten source to just file:line
			if a.Key == slog.SourceKey {
				src, ok := a.Value.Any().(*slog.Source)
				if !ok {
					return a
				}
				file := src.File[strings.LastIndex(src.File, "/")+1:]
				return slog.String("s", fmt.Sprintf("%s:%d", file, src.Line))
			}
			return a
		}
		handler = slog.NewTextHandler(w, handlerOpts)

		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			handler = tint.NewHandler(w, &tint.Options{
				AddSource:   true,
				Level:       slog.LevelDebug,
				ReplaceAttr: handlerOpts.ReplaceAttr,
				TimeFormat:  time.TimeOnly,
			})
		}
	}

	handler = slogx.NewChain(handler,
		slogm.RequestID(),
		slogm.StacktraceOnError(),
		slogm.TrimAttrs(1024), // 1Kb
	)

	slog.SetDefault(slog.New(handler))
}

func provider(opts options) discovery.Provider {
	if opts.Stdin {
		return &fileprovider.Stdin{}
	}

	return &fileprovider.File{
		FileName:      opts.File.Name,
		CheckInterval: opts.File.CheckInterval,
		Delay:         opts.File.Delay,
	}
}

func serverOptions(opts options) []server.Option {
	res := []server.Option{
		server.Version(getVersion()),
		server.MaxBodySize(opts.MaxBodySize),
	}
	if opts.Debug {
		res = append(res, server.Debug())
	}
	if opts.Metrics {
		res = append(res, server.WithMetrics())
	}
	return res
}

func run(ctx context.Context, opts options) error {
	cache := resource.NewCache(resource.Dir(opts.Resources))

	dsvc := &discovery.Service{
		Providers: []discovery.Provider{provider(opts)},
		OnUpdate: func(ctx context.Context, _ *discovery.Index) {
			slog.DebugContext(ctx, "dropping cached resources")
			cache.Reset()
		},
	}

	// invalid rules at startup are fatal
	if err := dsvc.Load(ctx); err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	srv := server.NewServer(&dispatch.Dispatcher{Matcher: dsvc, Loader: cache}, serverOptions(opts)...)

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error {
		if err := dsvc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("discovery service: %w", err)
		}
		return nil
	})
	ewg.Go(func() error {
		if err := srv.Listen(opts.Addr); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	ewg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Close(shutdownCtx); err != nil {
			slog.Warn("failed to close http server", slogx.Error(err))
		}
		return nil
	})

	if err := ewg.Wait(); err != nil {
		return err
	}

	return nil
}
