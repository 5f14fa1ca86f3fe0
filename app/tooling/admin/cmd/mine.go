package cmd

import (
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func mineCmd(c *client) *cobra.Command {
	var signal bool

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine the pending transactions into a block.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if signal {
				if err := c.do(http.MethodPost, "/v1/mining/signal", nil, nil); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), color.CyanString("mining signalled"))
				return nil
			}

			var resp struct {
				Status string `json:"status"`
				Block  *struct {
					Index        uint64 `json:"index"`
					Hash         string `json:"hash"`
					Nonce        uint64 `json:"nonce"`
					Transactions []any  `json:"transactions"`
				} `json:"block"`
			}
			if err := c.do(http.MethodPost, "/v1/mining/mine", nil, &resp); err != nil {
				return err
			}

			if resp.Block == nil {
				fmt.Fprintln(cmd.OutOrStdout(), color.YellowString(resp.Status))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("mined block %d", resp.Block.Index))
			fmt.Fprintf(cmd.OutOrStdout(), "  hash:         %s\n", resp.Block.Hash)
			fmt.Fprintf(cmd.OutOrStdout(), "  nonce:        %d\n", resp.Block.Nonce)
			fmt.Fprintf(cmd.OutOrStdout(), "  transactions: %d\n", len(resp.Block.Transactions))

			return nil
		},
	}

	cmd.Flags().BoolVarP(&signal, "signal", "s", false, "Signal the background worker instead of waiting for the block.")

	return cmd
}
