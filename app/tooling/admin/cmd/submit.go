package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

func submitCmd(c *client) *cobra.Command {
	var (
		id        string
		productID string
		from      string
		to        string
		action    string
		data      string
		dataFile  string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a transaction to the pending queue.",
		Example: `  admin submit --from FARMER001 --action create --data '{"name":"Tomatoes","origin":"Salinas","batchNumber":"B-1","harvestDate":"2025-03-01"}'
  admin submit --product AGR-2025-0001 --from FARMER001 --to SHIP001 --action transfer --data '{"status":"shipped"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dataFile != "" {
				b, err := os.ReadFile(dataFile)
				if err != nil {
					return err
				}
				data = string(b)
			}

			if !database.Action(action).IsValid() {
				return fmt.Errorf("unknown action %q", action)
			}

			tx := struct {
				ID        string          `json:"id,omitempty"`
				ProductID string          `json:"productId,omitempty"`
				From      string          `json:"from"`
				To        string          `json:"to,omitempty"`
				Action    string          `json:"action"`
				Data      json.RawMessage `json:"data,omitempty"`
			}{
				ID:        id,
				ProductID: productID,
				From:      from,
				To:        to,
				Action:    action,
			}
			if data != "" {
				tx.Data = json.RawMessage(data)
			}

			body, err := json.Marshal(tx)
			if err != nil {
				return fmt.Errorf("invalid data: %w", err)
			}

			var resp json.RawMessage
			if err := c.do(http.MethodPost, "/v1/tx/submit", bytes.NewReader(body), &resp); err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Transaction id, assigned by the node when empty.")
	cmd.Flags().StringVarP(&productID, "product", "p", "", "Product id, assigned by the node for a create when empty.")
	cmd.Flags().StringVarP(&from, "from", "f", "", "Actor submitting the transaction.")
	cmd.Flags().StringVarP(&to, "to", "t", "", "Receiving actor of a transfer.")
	cmd.Flags().StringVarP(&action, "action", "a", "", "One of create, transfer, update or verify.")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Action data as json.")
	cmd.Flags().StringVar(&dataFile, "data-file", "", "File holding the action data as json.")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("action")

	return cmd
}
