package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vyrodovalexey/inventory/internal/model"
)

const errBlankFields = "name, price and quantity must not be blank"

func newAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "add NAME PRICE QUANTITY",
		Short:   "Add a new item",
		Example: `  inventory add "Coffee beans" 12.50 40`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session) error {
				entry := model.Entry{Name: args[0], Price: args[1], Quantity: args[2]}
				if !s.ctrl.IsEntryValid(entry.Name, entry.Price, entry.Quantity) {
					return userError(errBlankFields, nil)
				}
				if err := s.ctrl.AddNewItem(entry.Name, entry.Price, entry.Quantity); err != nil {
					return userError("invalid item", err)
				}
				if err := s.flush(cmd.Context()); err != nil {
					return err
				}

				// The id is assigned in the background and not known here.
				added, _ := entry.Item(model.UnassignedID)
				return newPrinter(opts.Output, cmd.OutOrStdout()).Done("add", added)
			})
		},
	}
}

func newUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update ID NAME PRICE QUANTITY",
		Short: "Replace an item's name, price and quantity",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session) error {
				item, err := s.item(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				entry := model.Entry{Name: args[1], Price: args[2], Quantity: args[3]}
				if !s.ctrl.IsEntryValid(entry.Name, entry.Price, entry.Quantity) {
					return userError(errBlankFields, nil)
				}
				if err := s.ctrl.UpdateItem(item.ID, entry.Name, entry.Price, entry.Quantity); err != nil {
					return userError("invalid item", err)
				}
				if err := s.flush(cmd.Context()); err != nil {
					return err
				}

				updated, _ := entry.Item(item.ID)
				return newPrinter(opts.Output, cmd.OutOrStdout()).Done("update", updated)
			})
		},
	}
}

func newSellCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sell ID",
		Short: "Sell one unit of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session) error {
				item, err := s.item(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !s.ctrl.IsStockAvailable(item) {
					return userError(fmt.Sprintf("%s is out of stock", item.Name), nil)
				}

				s.ctrl.SellItem(item)
				if err := s.flush(cmd.Context()); err != nil {
					return err
				}

				return newPrinter(opts.Output, cmd.OutOrStdout()).Done("sell", item.WithQuantity(item.Quantity-1))
			})
		},
	}
}

func newDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session) error {
				item, err := s.item(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				s.ctrl.DeleteItem(item)
				if err := s.flush(cmd.Context()); err != nil {
					return err
				}

				return newPrinter(opts.Output, cmd.OutOrStdout()).Done("delete", item)
			})
		},
	}
}
