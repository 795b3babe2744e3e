// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/danielhkuo/yourviews/models"
	"github.com/danielhkuo/yourviews/queries"
)

var errUsage = errors.New("usage")

const usage = `usage: yourviews-admin [config flags] <command> [args]

commands:
  users                                list users
  promote <email>                      grant administrator access
  demote <email>                       revoke administrator access
  create-user [-admin] <email> <name>  add a user (prompts for a password)
  create-topic                         add a topic (prompts for its fields)
`

type app struct {
	q            *queries.Fetcher
	in           *bufio.Reader
	out          io.Writer
	readPassword func() (string, error)
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "users":
		return a.listUsers(ctx)
	case "promote", "demote":
		if len(rest) != 1 {
			return errUsage
		}
		return a.setAdmin(ctx, rest[0], cmd == "promote")
	case "create-user":
		return a.createUser(ctx, rest)
	case "create-topic":
		return a.createTopic(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *app) listUsers(ctx context.Context) error {
	users, err := a.q.ListUsers(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EMAIL\tUSERNAME\tADMIN\tJOINED")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", u.Email, u.UserName, u.IsAdmin, u.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

func (a *app) findUser(ctx context.Context, email string) (*models.AdminUser, error) {
	users, err := a.q.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, strings.TrimSpace(email)) {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("no user with email %s", email)
}

func (a *app) setAdmin(ctx context.Context, email string, isAdmin bool) error {
	u, err := a.findUser(ctx, email)
	if err != nil {
		return err
	}
	if u.IsAdmin == isAdmin {
		fmt.Fprintf(a.out, "%s unchanged (admin=%t)\n", u.Email, isAdmin)
		return nil
	}
	if err := a.q.SetUserAdmin(ctx, u.UserID, isAdmin); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now admin=%t\n", u.Email, isAdmin)
	return nil
}

func (a *app) createUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	isAdmin := fs.Bool("admin", false, "grant administrator access")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 2 {
		return errUsage
	}

	password, err := a.readPassword()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	u, err := a.q.AddUser(ctx, models.AddUserRequest{
		Email:    fs.Arg(0),
		Password: password,
		UserName: fs.Arg(1),
	})
	if err != nil {
		return err
	}
	if *isAdmin {
		if err := a.q.SetUserAdmin(ctx, u.ID, true); err != nil {
			return err
		}
	}

	fmt.Fprintf(a.out, "created %s (%s) admin=%t\n", u.Email, u.ID, *isAdmin)
	return nil
}

func (a *app) createTopic(ctx context.Context) error {
	var fields [3]string
	for i, prompt := range []string{"Title", "Category", "Description"} {
		v, err := promptLine(a.in, a.out, prompt)
		if err != nil {
			return fmt.Errorf("read %s: %w", strings.ToLower(prompt), err)
		}
		fields[i] = v
	}

	t, err := a.q.CreateTopic(ctx, fields[0], fields[2], fields[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created topic %q (%s)\n", t.Title, t.ID)
	return nil
}
