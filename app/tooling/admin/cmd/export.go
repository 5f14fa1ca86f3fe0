package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func exportCmd(c *client) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the chain, products and pending queue as json.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap json.RawMessage
			if err := c.do(http.MethodGet, "/v1/export", nil, &snap); err != nil {
				return err
			}

			if out == "" {
				return printJSON(cmd.OutOrStdout(), snap)
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := printJSON(f, snap); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "File to write, stdout when empty.")

	return cmd
}

func importCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the node's ledger with an exported snapshot.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var stats json.RawMessage
			if err := c.do(http.MethodPost, "/v1/import", bytes.NewReader(data), &stats); err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}
