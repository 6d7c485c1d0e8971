package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all items ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, func(s *session) error {
				items, err := s.items(cmd.Context())
				if err != nil {
					return err
				}
				return newPrinter(opts.Output, cmd.OutOrStdout()).Items(items)
			})
		},
	}
}

func newGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session) error {
				item, err := s.item(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return newPrinter(opts.Output, cmd.OutOrStdout()).Item(item)
			})
		},
	}
}

func newWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the item list every time it changes",
		Long: `Watch prints the current item list and then a new list after every
change, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, func(s *session) error {
				ctx := cmd.Context()
				out := newPrinter(opts.Output, cmd.OutOrStdout())
				snapshots := s.ctrl.AllItems(ctx)
				for {
					select {
					case <-ctx.Done():
						return nil
					case items, ok := <-snapshots:
						if !ok {
							return nil
						}
						if err := out.Items(items); err != nil {
							return err
						}
						if opts.Output == FormatYAML {
							fmt.Fprintln(cmd.OutOrStdout(), "---")
						}
					}
				}
			})
		},
	}
}
