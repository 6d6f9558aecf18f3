// Command cdcfs ingests host directory trees into a content-addressable
// store and serves stored images back out over a read-only filesystem.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/KarpelesLab/cdcfs"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "cdcfs",
		Short: "content-addressable image indexer",
	}
	root.AddCommand(newStoreInitCmd(), newPushCmd(), newMountCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cdcfs:", err)
		if errors.Is(err, cdcfs.ErrStoreNotInitialized) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
