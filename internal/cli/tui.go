package cli

import (
	"github.com/spf13/cobra"

	"github.com/vyrodovalexey/inventory/internal/tui"
)

func newTUICommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit the inventory interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, func(s *session) error {
				return tui.Run(cmd.Context(), s.ctrl)
			})
		},
	}
}
