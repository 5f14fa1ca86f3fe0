package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func productCmd(c *client) *cobra.Command {
	var batch string

	cmd := &cobra.Command{
		Use:   "product [id]",
		Short: "Print the current state of a product, or of every product.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/v1/products"
			switch {
			case len(args) == 1:
				path += "/" + url.PathEscape(args[0])
			case batch != "":
				path += "/batch/" + url.PathEscape(batch)
			}

			var resp json.RawMessage
			if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVarP(&batch, "batch", "b", "", "Only list the products of this batch.")

	return cmd
}

func historyCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Print the mined transactions of a product in time order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var history []struct {
				Transaction struct {
					ID        string `json:"id"`
					Action    string `json:"action"`
					From      string `json:"from"`
					To        string `json:"to"`
					TimeStamp int64  `json:"timestamp"`
				} `json:"transaction"`
				FromName string `json:"fromName"`
				ToName   string `json:"toName"`
			}

			if err := c.do(http.MethodGet, "/v1/products/"+url.PathEscape(args[0])+"/history", nil, &history); err != nil {
				return err
			}

			if len(history) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no history")
				return nil
			}

			for _, h := range history {
				line := h.Transaction.Action + "\t" + h.Transaction.ID + "\t" + h.FromName
				if h.ToName != "" {
					line += " -> " + h.ToName
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}

			return nil
		},
	}
}
