package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/amonks/artsy/app"
	"github.com/amonks/artsy/data"
	"github.com/amonks/artsy/session"
	"github.com/amonks/artsy/subcmd"
)

var stdin = bufio.NewReader(os.Stdin)

// prompt reads a line from stdin, unless value is already set.
func prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}

func login(ctx context.Context, a *app.App, args []string) error {
	subcmd := subcmd.New("login", "sign in, and remember the session")
	var (
		email    = subcmd.String("email", "", "account email (prompted if empty)")
		password = subcmd.String("password", os.Getenv("ARTSY_PASSWORD"), "account password (prompted if empty; also ARTSY_PASSWORD)")
	)
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	var err error
	if *email, err = prompt("email", *email); err != nil {
		return err
	}
	if *password, err = prompt("password", *password); err != nil {
		return err
	}

	if err := a.SignIn(ctx, *email, *password); err != nil {
		return errors.New(message(a.Session.State()))
	}
	fmt.Println(message(a.Session.State()))
	return nil
}

func register(ctx context.Context, a *app.App, args []string) error {
	subcmd := subcmd.New("register", "create an account and sign into it")
	var reg data.Registration
	subcmd.StringVar(&reg.FullName, "name", "", "full name (prompted if empty)")
	subcmd.StringVar(&reg.Email, "email", "", "email (prompted if empty)")
	subcmd.StringVar(&reg.Password, "password", os.Getenv("ARTSY_PASSWORD"), "password (prompted if empty; also ARTSY_PASSWORD)")
	subcmd.StringVar(&reg.ProfileImageURL, "avatar", "", "profile image url (optional)")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	var err error
	if reg.FullName, err = prompt("full name", reg.FullName); err != nil {
		return err
	}
	if reg.Email, err = prompt("email", reg.Email); err != nil {
		return err
	}
	if reg.Password, err = prompt("password", reg.Password); err != nil {
		return err
	}

	if err := a.Session.SignUp(ctx, reg); err != nil {
		return errors.New(message(a.Session.State()))
	}
	fmt.Println(message(a.Session.State()))
	return nil
}

func logout(ctx context.Context, a *app.App, args []string) error {
	subcmd := subcmd.New("logout", "sign out and forget the session")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	if err := a.SignOut(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "the server did not confirm the signout: %s\n", err)
	}
	fmt.Println("signed out")
	return nil
}

func whoami(ctx context.Context, a *app.App, args []string) error {
	subcmd := subcmd.New("whoami", "print the signed-in user")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	a.Start(ctx)
	fmt.Println(message(a.Session.State()))
	if exp, ok := a.Tokens.Expiry(); ok {
		fmt.Printf("session token expires %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}

func deleteAccount(ctx context.Context, a *app.App, args []string) error {
	subcmd := subcmd.New("delete-account", "delete the signed-in account")
	yes := subcmd.Bool("yes", false, "really delete it")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}
	if !*yes {
		return errors.New("refusing to delete the account without -yes")
	}

	a.Start(ctx)
	if !a.Session.Authenticated() {
		return errors.New("not signed in")
	}
	if err := a.DeleteAccount(ctx); err != nil {
		return fmt.Errorf("signed out, but the account may still exist: %w", err)
	}
	fmt.Println("account deleted")
	return nil
}

// message describes a session state for people.
func message(s session.State) string {
	switch s := s.(type) {
	case session.Idle:
		return "not signed in"
	case session.Loading:
		return "signing in..."
	case session.Success:
		return fmt.Sprintf("signed in as %s <%s>", s.User.FullName, s.User.Email)
	case session.Error:
		return s.Message
	default:
		panic(fmt.Sprintf("unknown session state %T", s))
	}
}
