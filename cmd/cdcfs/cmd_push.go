package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KarpelesLab/cdcfs"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newPushCmd() *cobra.Command {
	var verbose bool

	c := &cobra.Command{
		Use:   "push <root-path> <store-url>/<name>",
		Short: "ingest a host tree and register it under name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hostRoot := args[0]
			storeRoot, name, err := splitStoreURL(args[1])
			if err != nil {
				return err
			}

			if _, err := os.Stat(filepath.Join(storeRoot, "content")); err != nil {
				return fmt.Errorf("%w: %s", cdcfs.ErrStoreNotInitialized, storeRoot)
			}

			release, err := acquireLock(storeRoot)
			if err != nil {
				return err
			}
			defer release()

			bs := cdcfs.NewBlockStore(storeRoot)
			if err := bs.Load(); err != nil {
				return err
			}

			var bar *progressbar.ProgressBar
			if verbose {
				bar = progressbar.DefaultBytes(-1, "ingesting")
			}

			root, err := cdcfs.Ingest(bs, hostRoot, func(n int64) {
				if bar != nil {
					bar.Add64(n)
				}
			})
			if err != nil {
				return err
			}

			out, err := os.Create(filepath.Join(storeRoot, name))
			if err != nil {
				return err
			}
			defer out.Close()
			if err := cdcfs.EncodeIndex(out, root); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", cdcfs.DisplayHash(root.Content[0].Hash))
			return nil
		},
	}

	c.Flags().BoolVarP(&verbose, "verbose", "v", false, "show ingest progress")
	return c
}
