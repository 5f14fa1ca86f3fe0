package cmd

import (
	"fmt"
	"time"

	"github.com/agrochain/ledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

func genidCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "genid",
		Short: "Generate a transaction id and a product id.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tx:      %s\n", database.NewTxID())
			fmt.Fprintf(cmd.OutOrStdout(), "product: %s\n", database.NewProductID(prefix, time.Now().UTC()))
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", database.DefaultProductPrefix, "Product id prefix.")

	return cmd
}
