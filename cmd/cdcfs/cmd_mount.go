package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KarpelesLab/cdcfs"
	"github.com/spf13/cobra"
)

func newMountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mount <store-url>/<name> <mount-point>",
		Short: "expose a stored image as a read-only filesystem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeRoot, name, err := splitStoreURL(args[0])
			if err != nil {
				return err
			}
			mountPoint := args[1]

			if _, err := os.Stat(filepath.Join(storeRoot, "content")); err != nil {
				return fmt.Errorf("%w: %s", cdcfs.ErrStoreNotInitialized, storeRoot)
			}

			bs := cdcfs.NewBlockStore(storeRoot)
			if err := bs.Load(); err != nil {
				return err
			}

			ref, err := cdcfs.LoadFromFile(filepath.Join(storeRoot, name))
			if err != nil {
				return err
			}
			idx, err := cdcfs.LoadIndex(ref, bs)
			if err != nil {
				return err
			}

			return cdcfs.Mount(idx, bs, mountPoint)
		},
	}
}
