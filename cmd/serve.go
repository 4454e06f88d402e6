package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v3"

	"github.com/hesi-tools/memberdir/internal/mailer"
	"github.com/hesi-tools/memberdir/internal/server"
	"github.com/hesi-tools/memberdir/internal/token"
)

// Serve wires the handlers into a router and runs the HTTP API until the
// context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host := cmd.String("host")
	if host == "" {
		host = r.config.Server.Host
	}
	port := int(cmd.Int("port"))
	if port == 0 {
		port = r.config.Server.Port
	}

	client, err := r.storeClient(ctx)
	if err != nil {
		return err
	}

	signer, err := token.NewSigner(r.config.Links.Secret)
	if err != nil {
		return err
	}
	mail := mailer.New(r.config.Mail, r.logger)

	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))

	join := server.NewJoinHandler(client, signer, mail, r.config.Links.BaseURL, r.logger)
	for _, route := range join.Routes() {
		method := http.MethodPost
		if route == "/join/verify" || route == "/api/join/prefill" {
			method = http.MethodGet
		}
		router.Handle(method, route, join)
	}

	members := server.NewMembersHandler(client, r.logger)
	router.Handle(http.MethodPost, "/api/members", members)
	router.Handle(http.MethodGet, "/api/members/search", members)
	router.Handle(http.MethodGet, "/api/members/lookup", members)

	health := server.NewHealthHandler(client, r.config, r.logger)
	for _, route := range health.Routes() {
		router.Handle(http.MethodGet, route, health)
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	return server.Serve(ctx, addr, router, r.logger)
}
