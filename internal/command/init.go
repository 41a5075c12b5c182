package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/adamavenir/parley/internal/backend"
	"github.com/adamavenir/parley/internal/core"
	"github.com/adamavenir/parley/internal/types"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the backend connection and identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, err := core.ReadConfig()
			if err != nil {
				return writeCommandError(cmd, err)
			}

			reader := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			backendURL, err := prompt(reader, out, "Backend URL", existing.BackendURL)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			normalized, err := backend.NormalizeBaseURL(backendURL)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			token, err := prompt(reader, out, "API token (blank for none)", existing.Token)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			email, err := prompt(reader, out, "Email", existing.Email)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if email == "" {
				return writeCommandError(cmd, fmt.Errorf("email is required"))
			}

			userID := existing.UserID
			if userID == "" {
				userID = uuid.NewString()
			}

			region, err := prompt(reader, out, "AWS region (blank to disable attachments)", existing.Region)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			imageBucket := existing.ImageBucket
			documentBucket := existing.DocumentBucket
			if region != "" {
				if imageBucket, err = prompt(reader, out, "Image bucket", existing.ImageBucket); err != nil {
					return writeCommandError(cmd, err)
				}
				if documentBucket, err = prompt(reader, out, "Document bucket", existing.DocumentBucket); err != nil {
					return writeCommandError(cmd, err)
				}
			}

			client, err := backend.NewClient(normalized, token)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if err := client.UpsertProfile(context.Background(), types.Profile{ID: userID, Email: email}); err != nil {
				return writeCommandError(cmd, fmt.Errorf("register profile: %w", err))
			}

			config := core.Config{
				Version:        1,
				BackendURL:     normalized,
				Token:          token,
				UserID:         userID,
				Email:          email,
				Region:         region,
				ImageBucket:    imageBucket,
				DocumentBucket: documentBucket,
			}
			if err := core.WriteConfig(config); err != nil {
				return writeCommandError(cmd, err)
			}

			fmt.Fprintf(out, "Configured %s as %s\n", normalized, email)
			return nil
		},
	}

	return cmd
}

func prompt(reader *bufio.Reader, out io.Writer, label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return current, nil
	}
	return value, nil
}
