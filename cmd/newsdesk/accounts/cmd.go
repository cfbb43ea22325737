package accounts

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nmoram/newsdesk/auth"
	"github.com/nmoram/newsdesk/internal/cmdflags"
	"github.com/nmoram/newsdesk/internal/store"
	"github.com/urfave/cli/v2"
)

// Cmd groups the administrative account operations. They talk straight to
// the database, which is how the first admin gets provisioned before the
// HTTP API has anyone to authenticate.
func Cmd() *cli.Command {
	var principals *auth.Store
	var db *sql.DB
	dbPath := "newsdesk.db"
	return &cli.Command{
		Name:  "accounts",
		Usage: "Manage principals directly against the database",
		Flags: []cli.Flag{
			cmdflags.Database(&dbPath),
		},
		Before: func(ctx *cli.Context) error {
			var err error
			db, err = store.Open(ctx.Context, dbPath)
			if err != nil {
				return err
			}
			principals = auth.NewStore(db)
			return principals.Setup(ctx.Context)
		},
		After: func(ctx *cli.Context) error {
			if db != nil {
				return db.Close()
			}
			return nil
		},
		Subcommands: []*cli.Command{
			registerCmd(&principals),
			setRoleCmd(&principals),
			deactivateCmd(&principals),
			removeCmd(&principals),
		},
	}
}

func registerCmd(principals **auth.Store) *cli.Command {
	var email string
	role := string(auth.RoleUser)
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new principal (password is read from stdin)",
		Flags: []cli.Flag{
			emailFlag(&email),
			&cli.StringFlag{
				Name:        "role",
				Usage:       "Role of the new principal (admin or user)",
				Value:       role,
				Destination: &role,
			},
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				return sc.Err()
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			authn := auth.NewAuthenticator(*principals, nil)
			p, err := authn.Register(ctx.Context, email, password, auth.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.App.Writer, "registered %v as %v\n", p.Email, p.Role)
			return nil
		},
	}
}

func setRoleCmd(principals **auth.Store) *cli.Command {
	var email string
	var role string
	return &cli.Command{
		Name:  "set-role",
		Usage: "Change the role of an existing principal (tokens already issued keep their scopes until expiry)",
		Flags: []cli.Flag{
			emailFlag(&email),
			&cli.StringFlag{
				Name:        "role",
				Usage:       "New role (admin or user)",
				Destination: &role,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			return (*principals).SetRole(ctx.Context, email, auth.Role(role))
		},
	}
}

func deactivateCmd(principals **auth.Store) *cli.Command {
	var email string
	var activate bool
	return &cli.Command{
		Name:  "deactivate",
		Usage: "Clear the active flag of a principal, locking it out of account-gated operations",
		Flags: []cli.Flag{
			emailFlag(&email),
			&cli.BoolFlag{
				Name:        "undo",
				Usage:       "Re-activate instead",
				Destination: &activate,
			},
		},
		Action: func(ctx *cli.Context) error {
			return (*principals).SetActive(ctx.Context, email, activate)
		},
	}
}

func removeCmd(principals **auth.Store) *cli.Command {
	var email string
	return &cli.Command{
		Name:  "remove",
		Usage: "Delete a principal; its outstanding tokens stop authenticating on next use",
		Flags: []cli.Flag{
			emailFlag(&email),
		},
		Action: func(ctx *cli.Context) error {
			return (*principals).Remove(ctx.Context, email)
		},
	}
}

func emailFlag(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "email",
		Aliases:     []string{"e"},
		Usage:       "Email of the principal",
		Destination: out,
		Required:    true,
	}
}
