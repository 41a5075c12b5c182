package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamavenir/parley/internal/backend"
)

// NewPostCmd creates the post command, a one-shot send without the TUI.
func NewPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post <message>",
		Short: "Send a message without opening the chat UI",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext()
			if err != nil {
				return writeCommandError(cmd, err)
			}

			content := strings.TrimSpace(strings.Join(args, " "))
			if content == "" {
				return writeCommandError(cmd, fmt.Errorf("message is empty"))
			}

			replyTo, _ := cmd.Flags().GetString("reply-to")
			payload := backend.NewMessage{
				Content:     content,
				AuthorID:    ctx.Config.UserID,
				AuthorLabel: ctx.Config.Email,
			}
			if replyTo != "" {
				payload.ReplyToID = &replyTo
			}

			msg, err := ctx.Client.InsertMessage(context.Background(), payload)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", msg.ID)
			return nil
		},
	}

	cmd.Flags().String("reply-to", "", "message id to reply to")
	return cmd
}
