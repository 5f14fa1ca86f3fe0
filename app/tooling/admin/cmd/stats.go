package cmd

import (
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func statsCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the ledger summary.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats struct {
				TotalBlocks         int  `json:"totalBlocks"`
				TotalTransactions   int  `json:"totalTransactions"`
				TotalProducts       int  `json:"totalProducts"`
				PendingTransactions int  `json:"pendingTransactions"`
				IsValid             bool `json:"isValid"`
			}
			if err := c.do(http.MethodGet, "/v1/stats", nil, &stats); err != nil {
				return err
			}

			valid := color.GreenString("valid")
			if !stats.IsValid {
				valid = color.RedString("INVALID")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "blocks:       %d\n", stats.TotalBlocks)
			fmt.Fprintf(cmd.OutOrStdout(), "transactions: %d\n", stats.TotalTransactions)
			fmt.Fprintf(cmd.OutOrStdout(), "products:     %d\n", stats.TotalProducts)
			fmt.Fprintf(cmd.OutOrStdout(), "pending:      %d\n", stats.PendingTransactions)
			fmt.Fprintf(cmd.OutOrStdout(), "chain:        %s\n", valid)

			return nil
		},
	}
}

func validateCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the chain of the node.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				IsValid bool   `json:"isValid"`
				Error   string `json:"error"`
			}
			if err := c.do(http.MethodGet, "/v1/validate", nil, &resp); err != nil {
				return err
			}

			if !resp.IsValid {
				fmt.Fprintln(cmd.OutOrStdout(), color.RedString("chain is invalid: %s", resp.Error))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("chain is valid"))
			return nil
		},
	}
}
