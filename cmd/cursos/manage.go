package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	cursos "github.com/MrEthical07/cursos"
	"github.com/MrEthical07/cursos/account"
	"github.com/MrEthical07/cursos/course"
	"github.com/MrEthical07/cursos/internal/database"
	"github.com/MrEthical07/cursos/password"
)

func newUserCmd(load func() (cursos.Config, error)) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage users allowed to log in",
	}

	var email, plain string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a user; the password is read from stdin when --password is omitted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if plain == "" {
				if plain, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			db, err := database.OpenMigrated(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			u, err := addUser(cmd, account.NewSQLStore(db), cfg.Password, email, plain)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d <%s>\n", u.ID, u.Email)
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "login e-mail")
	add.Flags().StringVar(&plain, "password", "", "plain-text password")
	_ = add.MarkFlagRequired("email")

	user.AddCommand(add)
	return user
}

func addUser(cmd *cobra.Command, store account.Store, cfg password.Config, email, plain string) (*account.User, error) {
	email = account.NormalizeEmail(email)
	if email == "" {
		return nil, errors.New("email is required")
	}
	hasher, err := password.NewHasher(cfg)
	if err != nil {
		return nil, err
	}
	hash, err := hasher.Hash(plain)
	if err != nil {
		return nil, err
	}
	u := &account.User{Email: email, PasswordHash: hash}
	if err := store.Create(cmd.Context(), u); err != nil {
		return nil, err
	}
	return u, nil
}

func newCourseCmd(load func() (cursos.Config, error)) *cobra.Command {
	c := &cobra.Command{
		Use:   "course",
		Short: "Manage catalog entries",
	}
	c.AddCommand(&cobra.Command{
		Use:   "add DESCRIPTION",
		Short: "Insert a course",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			db, err := database.OpenMigrated(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			entry := &course.Course{Description: strings.TrimSpace(strings.Join(args, " "))}
			if err := course.NewSQLRepository(db).Save(cmd.Context(), entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created course %d\n", entry.ID)
			return nil
		},
	})
	return c
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}
