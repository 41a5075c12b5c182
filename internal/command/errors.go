package command

import (
	"fmt"

	"github.com/adamavenir/parley/internal/backend"
	"github.com/spf13/cobra"
)

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())

	if backend.IsNotAuthorized(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: the token may be stale. Try: parley init")
	}

	return err
}
