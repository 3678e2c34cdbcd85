package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	deliverect "github.com/goliatone/go-deliverect"
	promadapter "github.com/goliatone/go-deliverect/adapters/prometheus"
	"github.com/goliatone/go-deliverect/webhooks"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

type serveOptions struct {
	addr        string
	metricsPath string
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive Deliverect webhooks and write classified events as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, flush, err := newLogger(root.verbose)
			if err != nil {
				return err
			}
			defer flush()

			recorder := promadapter.NewRecorder()
			svc, err := root.newService(logger, deliverect.WithMetricsRecorder(recorder))
			if err != nil {
				return err
			}
			receiver := svc.NewReceiver(newJSONLineSink(cmd.OutOrStdout()))
			server := &http.Server{
				Addr:              opts.addr,
				Handler:           recorder.Middleware(newServeMux(receiver, opts.metricsPath, recorder.Handler())),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serveErr := make(chan error, 1)
			go func() {
				logger.Info("deliverect webhook receiver listening",
					"addr", opts.addr,
					"path", receiver.Path(),
					"metrics_path", opts.metricsPath,
				)
				serveErr <- server.ListenAndServe()
			}()

			select {
			case err := <-serveErr:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			err = server.Shutdown(shutdownCtx)
			if drainErr := receiver.Drain(shutdownCtx); err == nil {
				err = drainErr
			}
			logger.Info("deliverect webhook receiver stopped")
			return err
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.metricsPath, "metrics-path", "/metrics", "prometheus scrape path")
	return cmd
}

func newServeMux(receiver *webhooks.Receiver, metricsPath string, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(receiver.Path(), receiver)
	if metricsPath != "" && metrics != nil {
		mux.Handle(metricsPath, metrics)
	}
	return mux
}

// newJSONLineSink writes each emitted event record on its own line.
func newJSONLineSink(out io.Writer) webhooks.EventSink {
	var mu sync.Mutex
	encoder := json.NewEncoder(out)
	return webhooks.EventSinkFunc(func(_ context.Context, event webhooks.ClassifiedEvent) error {
		mu.Lock()
		defer mu.Unlock()
		return encoder.Encode(event.Record())
	})
}
