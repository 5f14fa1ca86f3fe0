// This program performs administrative tasks against a running ledger node.
package main

import (
	"os"

	"github.com/agrochain/ledger/app/tooling/admin/cmd"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {
	if err := cmd.NewRoot(build).Execute(); err != nil {
		os.Exit(1)
	}
}
