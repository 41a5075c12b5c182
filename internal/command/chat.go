package command

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adamavenir/parley/internal/cache"
	"github.com/adamavenir/parley/internal/chat"
	"github.com/adamavenir/parley/internal/core"
	"github.com/adamavenir/parley/internal/storage"
)

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext()
			if err != nil {
				return writeCommandError(cmd, err)
			}

			opts := chat.Options{
				Client:     ctx.Client,
				BackendURL: ctx.Config.BackendURL,
				Token:      ctx.Config.Token,
				UserID:     ctx.Config.UserID,
				Email:      ctx.Config.Email,
				Logger:     sessionLogger(),
			}

			if ctx.Config.Region != "" && ctx.Config.ImageBucket != "" {
				store, err := storage.New(context.Background(), storage.Options{
					Region:         ctx.Config.Region,
					ImageBucket:    ctx.Config.ImageBucket,
					DocumentBucket: ctx.Config.DocumentBucket,
				})
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: attachments disabled: %s\n", err)
				} else {
					opts.Attachments = store
				}
			}

			if path, err := core.CachePath(); err == nil {
				if db, err := cache.Open(path); err == nil {
					opts.CacheDB = db
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: snapshot cache disabled: %s\n", err)
				}
			}

			if err := chat.Run(opts); err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}

	return cmd
}

// sessionLogger writes diagnostics to a file next to the config. Stderr is
// owned by the TUI while a session runs.
func sessionLogger() *log.Logger {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(home, ".config", "parley", "session.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	return log.New(file, "", log.LstdFlags)
}
