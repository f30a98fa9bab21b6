package main

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	apperrors "github.com/studybridge/client-go/internal/errors"
)

func newProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in student's progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			student, ok := a.sessions.Student()
			if !ok {
				return apperrors.NoSession("student")
			}

			profile, err := a.api.FetchProfile(ctx, student.Token)
			if err != nil {
				return err
			}

			// Cache for the logout flush; a cache failure only costs that.
			if raw, err := json.Marshal(profile); err == nil {
				if err := a.cache.Put(ctx, cachedProfileKey, string(raw)); err != nil {
					log.Debug().Err(err).Msg("could not cache profile")
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "student:        %s\n", student.Name)
			fmt.Fprintf(out, "total progress: %.1f%%\n", profile.TotalProgress)
			fmt.Fprintf(out, "daily progress: %.1f%%\n", profile.ProgressPerDays)
			fmt.Fprintf(out, "time spent:     %s\n", formatSeconds(profile.TimeSpent))
			return nil
		},
	}
}

func newStudentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "students",
		Short: "List students enrolled under the signed-in admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			admin, ok := a.sessions.Admin()
			if !ok {
				return apperrors.NoSession("admin")
			}

			students, err := a.api.ListEnrolled(ctx, admin.Token)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(students) == 0 {
				fmt.Fprintln(out, "no students enrolled yet")
				return nil
			}
			for _, s := range students {
				fmt.Fprintf(out, "%s\t%s\n", s.UserToken, s.Name)
			}
			return nil
		},
	}
}

func formatSeconds(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := total % 3600 / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
