package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/studybridge/client-go/internal/api"
	"github.com/studybridge/client-go/internal/model"
	"github.com/studybridge/client-go/internal/token"
)

// cachedProfileKey holds the last fetched profile so logout can flush
// progress even though each command runs in its own process.
const cachedProfileKey = "profile"

func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session on this machine",
	}

	var name, password string

	student := &cobra.Command{
		Use:   "student",
		Short: "Sign in as a student",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tok := token.Derive(name, password)
			account, err := a.api.CheckStudent(ctx, tok)
			if err != nil {
				return err
			}
			if err := a.sessions.LoginStudent(ctx, model.Identity{Name: account.Name, Token: tok}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (token %s)\n", account.Name, tok)
			return nil
		},
	}

	admin := &cobra.Command{
		Use:   "admin",
		Short: "Sign in as an admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tok := token.Derive(name, password)
			account, err := a.api.CheckAdmin(ctx, tok)
			if err != nil {
				return err
			}
			id := model.Identity{Name: account.Name, Token: tok, AdminToken: account.AdminTokens}
			if err := a.sessions.LoginAdmin(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (admin token %s)\n", account.Name, tok)
			return nil
		},
	}

	for _, sub := range []*cobra.Command{student, admin} {
		sub.Flags().StringVar(&name, "name", "", "account name")
		sub.Flags().StringVar(&password, "password", "", "account password")
		sub.MarkFlagRequired("name")
		sub.MarkFlagRequired("password")
		cmd.AddCommand(sub)
	}
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the backend",
	}

	var name, password, adminToken string

	student := &cobra.Command{
		Use:   "student",
		Short: "Create a student account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if adminToken != "" {
				// Verify the admin exists before creating an account bound to it.
				if _, err := a.api.CheckAdmin(ctx, adminToken); err != nil {
					return err
				}
			}
			tok := token.Derive(name, password)
			err := a.api.RegisterStudent(ctx, api.RegisterStudentParams{
				Name:        name,
				Password:    password,
				Token:       tok,
				AdminTokens: adminToken,
			})
			if err != nil {
				return err
			}
			if adminToken != "" {
				if err := a.api.Enroll(ctx, adminToken, tok); err != nil {
					// The account exists; enrollment can be repeated later.
					log.Warn().Err(err).Msg("account created but enrollment failed")
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s, sign in with the same name and password\n", name)
			return nil
		},
	}
	student.Flags().StringVar(&adminToken, "admin-token", "", "enroll under this admin")

	admin := &cobra.Command{
		Use:   "admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tok := token.Derive(name, password)
			err := a.api.RegisterAdmin(ctx, api.RegisterAdminParams{
				Name:        name,
				Password:    password,
				AdminTokens: tok,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered admin %s, share token %s with your students\n", name, tok)
			return nil
		},
	}

	for _, sub := range []*cobra.Command{student, admin} {
		sub.Flags().StringVar(&name, "name", "", "account name")
		sub.Flags().StringVar(&password, "password", "", "account password")
		sub.MarkFlagRequired("name")
		sub.MarkFlagRequired("password")
		cmd.AddCommand(sub)
	}
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a.flushProgress(ctx)
			if err := a.sessions.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

// flushProgress pushes the last cached progress snapshot to the backend.
// Best effort: a failure is logged and logout proceeds regardless.
func (a *app) flushProgress(ctx context.Context) {
	student, ok := a.sessions.Student()
	if !ok {
		return
	}
	raw, found, err := a.cache.Get(ctx, cachedProfileKey)
	if err != nil || !found {
		return
	}
	var profile api.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		log.Debug().Err(err).Msg("discarding unreadable cached profile")
		return
	}
	profile.Token = student.Token
	if err := a.api.SaveProgress(ctx, profile); err != nil {
		log.Warn().Err(err).Msg("could not flush progress before logout")
	}
}
