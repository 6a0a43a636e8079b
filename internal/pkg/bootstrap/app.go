// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"giftify/internal/pkg/logger"
	"giftify/internal/pkg/nacos"
	"giftify/internal/pkg/tracing"
)

// AppCtx is handed to the service while it wires itself up.
type AppCtx struct {
	Config *Config
	Tracer trace.Tracer

	closers []closer
}

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

// OnShutdown registers cleanup. Cleanups run in reverse registration order
// after the HTTP server has drained.
func (a *AppCtx) OnShutdown(name string, fn func(ctx context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Close runs the registered cleanups. Processes that do not go through
// StartService call it on exit.
func (a *AppCtx) Close(timeout time.Duration) {
	shutdown(a, timeout)
}

// AppInfo describes one service process.
type AppInfo struct {
	ServiceName string
	Config      *Config
	// Build wires the service and returns its HTTP handler.
	Build func(app *AppCtx) (http.Handler, error)
}

// StartService runs the shared startup and graceful shutdown sequence:
// tracing, wiring, optional nacos registration, HTTP serving until SIGINT or
// SIGTERM, then teardown.
func StartService(info AppInfo) error {
	cfg := info.Config
	logger.Init(info.ServiceName, cfg.App.LogLevel, cfg.App.LogFormat)

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint, cfg.Infra.Jaeger.SampleRatio)
	if err != nil {
		return fmt.Errorf("initialize tracer provider: %w", err)
	}

	app := &AppCtx{Config: cfg, Tracer: otel.Tracer(info.ServiceName)}
	app.OnShutdown("tracer provider", tp.Shutdown)

	handler, err := info.Build(app)
	if err != nil {
		shutdown(app, cfg.App.ShutdownTimeout)
		return fmt.Errorf("build %s: %w", info.ServiceName, err)
	}

	if cfg.Infra.Nacos.Enabled {
		if err := registerWithNacos(app, info.ServiceName); err != nil {
			shutdown(app, cfg.App.ShutdownTimeout)
			return err
		}
	}

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.App.ProcessingTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.L().Info().Str("addr", server.Addr).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		logger.L().Info().Str("signal", sig.String()).Msgf("shutting down %s", info.ServiceName)
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.L().Error().Err(err).Msg("error shutting down http server")
	}
	shutdown(app, cfg.App.ShutdownTimeout)

	logger.L().Info().Msgf("%s gracefully shut down", info.ServiceName)
	return runErr
}

func registerWithNacos(app *AppCtx, serviceName string) error {
	nc := app.Config.Infra.Nacos
	client, err := nacos.NewNacosClient(nc.Addrs, nc.Namespace, nc.Group)
	if err != nil {
		return fmt.Errorf("initialize nacos client: %w", err)
	}
	ip, err := GetOutboundIP()
	if err != nil {
		client.Close()
		return fmt.Errorf("resolve outbound ip: %w", err)
	}
	port := app.Config.App.Port
	if err := client.RegisterServiceInstance(serviceName, ip, port); err != nil {
		client.Close()
		return err
	}
	app.OnShutdown("nacos", func(context.Context) error {
		defer client.Close()
		return client.DeregisterServiceInstance(serviceName, ip, port)
	})
	return nil
}

func shutdown(app *AppCtx, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for i := len(app.closers) - 1; i >= 0; i-- {
		c := app.closers[i]
		if err := c.fn(ctx); err != nil {
			logger.L().Error().Err(err).Str("component", c.name).Msg("shutdown failed")
			continue
		}
		logger.L().Info().Str("component", c.name).Msg("shut down")
	}
}

// GetOutboundIP returns the local address used for outbound traffic. No
// packet is sent; UDP dial only selects a route.
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected local address type %T", conn.LocalAddr())
	}
	return addr.IP.String(), nil
}
