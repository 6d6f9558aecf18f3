package main

import (
	"github.com/KarpelesLab/cdcfs"
	"github.com/spf13/cobra"
)

func newStoreInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "store-init <path>",
		Short: "create an empty store (makes content/)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			release, err := acquireLock(root)
			if err != nil {
				return err
			}
			defer release()
			return cdcfs.InitStore(root)
		},
	}
}
