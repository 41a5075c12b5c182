package command

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command.
func NewWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the configured identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext()
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
				payload := struct {
					UserID     string `json:"user_id"`
					Email      string `json:"email"`
					BackendURL string `json:"backend_url"`
					Registered bool   `json:"registered"`
				}{
					UserID:     ctx.Config.UserID,
					Email:      ctx.Config.Email,
					BackendURL: ctx.Config.BackendURL,
				}
				if _, err := ctx.Client.GetProfile(context.Background(), ctx.Config.UserID); err == nil {
					payload.Registered = true
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(payload)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", ctx.Config.Email, ctx.Config.UserID)
			fmt.Fprintf(out, "backend: %s\n", ctx.Config.BackendURL)
			if _, err := ctx.Client.GetProfile(context.Background(), ctx.Config.UserID); err != nil {
				fmt.Fprintln(out, "profile: not registered (run parley init)")
			} else {
				fmt.Fprintln(out, "profile: registered")
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "output in JSON format")
	return cmd
}
