package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"webomat/internal/session"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in and remember the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, EnvVars: []string{"WEBOMAT_USERNAME"}, Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, EnvVars: []string{"WEBOMAT_PASSWORD"}, Usage: "read from stdin when omitted"},
		},
		Action: func(c *cli.Context) error {
			e := getEnv(c)
			password := c.String("password")
			if password == "" {
				fmt.Fprint(e.errOut, "Password: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			user, err := e.client.Login(c.Context, c.String("username"), password)
			if err != nil {
				return failed(err, false)
			}
			fmt.Fprintf(e.out, "Signed in as %s (%s)\n", user.Email, user.Role)
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the stored session",
		Action: func(c *cli.Context) error {
			e := getEnv(c)
			if err := e.client.Logout(c.Context); err != nil {
				return failed(err, false)
			}
			fmt.Fprintln(e.out, "Signed out")
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "show the signed-in user",
		Action: func(c *cli.Context) error {
			e := getEnv(c)
			id, err := currentIdentity(c)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "%s\t%s\n", id.Email, id.Role)
			if id.SellerID != "" {
				fmt.Fprintf(e.out, "seller\t%s\n", id.SellerID)
			}
			return nil
		},
	}
}

// currentIdentity resolves who is signed in, asking the backend when the
// token carries no role.
func currentIdentity(c *cli.Context) (session.Identity, error) {
	e := getEnv(c)
	token, err := e.client.AccessToken(c.Context)
	if err != nil {
		return session.Identity{}, failed(err, false)
	}
	if token == "" {
		return session.Identity{}, errors.New("not signed in, run `webomatctl login`")
	}
	id, err := session.NewResolver(e.client.Me).Resolve(c.Context, token)
	if err != nil {
		if errors.Is(err, session.ErrTokenExpired) {
			return session.Identity{}, errors.New("session expired, run `webomatctl login`")
		}
		return session.Identity{}, failed(err, false)
	}
	return id, nil
}
