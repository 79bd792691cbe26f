package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportsCmd)
}

var exportsCmd = &cobra.Command{
	Use:   "exports <macho>",
	Short: "Print the exported symbols from the export trie",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openImage(args[0])
		if err != nil {
			return err
		}

		exports, err := f.DyldExports()
		if err != nil {
			return err
		}
		for _, export := range exports {
			fmt.Println(export)
		}

		return nil
	},
}
