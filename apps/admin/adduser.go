package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trezcool/caseload/core"
	"github.com/trezcool/caseload/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var name, uname, email string
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user, or set the password of an existing one. The password is prompted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if uname == "" && email == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd, "Enter password:")
			if err != nil {
				return err
			}
			usr, err := cli.addUser(name, uname, email, pwd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "user %s saved\n", usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "the user's full name")
	cmd.Flags().StringVar(&uname, "username", "", "the user's username")
	cmd.Flags().StringVar(&email, "email", "", "the user's email")
	return cmd
}

// addUser updates the password of the matching user, or creates a new user.
func (cli *commandLine) addUser(name, uname, email, pwd string) (user.User, error) {
	ctx := context.Background()
	for _, key := range []string{uname, email} {
		if key == "" {
			continue
		}
		usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, key)
		if err == nil {
			return cli.usrSvc.SetPassword(ctx, usr, user.SetPassword{Password: pwd, PasswordConfirm: pwd})
		}
		if !core.IsNotFound(err) {
			return user.User{}, err
		}
	}

	if name == "" {
		name = uname
	}
	return cli.usrSvc.Create(ctx, user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
}
