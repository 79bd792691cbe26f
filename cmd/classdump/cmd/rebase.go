package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebaseCmd)
}

var rebaseCmd = &cobra.Command{
	Use:   "rebase <macho>",
	Short: "Print the dyld rebase info",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openImage(args[0])
		if err != nil {
			return err
		}

		rebases, err := f.GetRebases()
		if err != nil {
			return err
		}
		for _, rebase := range rebases {
			fmt.Println(rebase)
		}

		return nil
	},
}
