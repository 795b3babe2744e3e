// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/danielhkuo/yourviews/cliparse"
	"github.com/danielhkuo/yourviews/db"
	"github.com/danielhkuo/yourviews/queries"
	"github.com/danielhkuo/yourviews/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg, args, err := cliparse.ParseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "database connection failed:", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn, cfg.DatabaseType); err != nil {
		fmt.Fprintln(os.Stderr, "migration failed:", err)
		os.Exit(1)
	}

	authSvc := store.NewAuthService(conn, store.AuthConfig{
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		ResetTokenTTL:  cfg.ResetTokenTTL,
	})

	in := bufio.NewReader(os.Stdin)
	a := &app{
		q:            queries.New(store.New(conn), authSvc),
		in:           in,
		out:          os.Stdout,
		readPassword: terminalPassword(in, os.Stdout),
	}

	if err := a.run(ctx, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			if err != errUsage {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
