package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
)

var (
	readPasswordFunc = term.ReadPassword

	errHelp = errors.New("help provided")
)

type userCreator interface {
	Create(ctx context.Context, req service.CreateUserRequest) (*models.User, error)
}

type commandLine struct {
	migrate func(command string) error
	users   userCreator
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate [up|down|status]                    - apply or inspect schema migrations")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -name NAME -role ROLE  - create an account, password is prompted")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		command := "up"
		if len(args) > 2 {
			command = args[2]
		}
		return cli.migrate(command)
	case "adduser":
		return cli.addUser(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addUser(args []string) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(cli.out)
	email := fs.String("email", "", "Login email.")
	name := fs.String("name", "", "Full name.")
	role := fs.String("role", string(models.RoleAdmin), "One of admin, teacher, parent, student.")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *email == "" || *name == "" {
		fs.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return errHelp
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := cli.users.Create(ctx, service.CreateUserRequest{
		Email:    *email,
		FullName: *name,
		Role:     *role,
		Password: string(pwd),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}
