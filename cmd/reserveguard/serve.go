package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	jwttoken "reserveguard/internal/jwt_token"
	"reserveguard/internal/platform/httpserver"
	platformmetrics "reserveguard/internal/platform/metrics"
	httptransport "reserveguard/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func cmdServe(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(errOut)
	addr := fs.String("addr", "", "listen address (defaults to RESERVEGUARD_ADDR)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(errOut, "usage: reserveguard serve [--addr <host:port>]")
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, errOut, withPublisherBreaker())
	if err != nil {
		return fail(errOut, err)
	}
	defer app.close()

	listen := app.cfg.HTTPAddr
	if *addr != "" {
		listen = *addr
	}
	if app.cfg.JWTSigningKey == "" {
		app.logger.WarnContext(ctx, "RESERVEGUARD_JWT_SIGNING_KEY is empty; admin routes will reject every request")
	}

	validator := jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(app.cfg.JWTSigningKey, issuer))
	handler := httptransport.NewHandler(app.service, app.logger)
	router := httptransport.NewRouter(handler, validator, platformmetrics.Handler(app.registry), app.logger)
	srv := httpserver.New(listen, router)

	app.logger.InfoContext(ctx, "starting server", "addr", listen, "backend", app.cfg.Backend)
	fmt.Fprintf(out, "Listening on %s\n", listen)
	if err := httpserver.Run(ctx, srv, shutdownTimeout); err != nil {
		return fail(errOut, err)
	}
	app.logger.InfoContext(ctx, "server stopped")
	return exitOK
}
