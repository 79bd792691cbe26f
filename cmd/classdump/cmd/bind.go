package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	classdump "github.com/appsworld/go-classdump"
)

var (
	weakBinds bool
	lazyBinds bool
)

func init() {
	rootCmd.AddCommand(bindCmd)

	bindCmd.Flags().BoolVar(&weakBinds, "weak", false, "print the weak binding info")
	bindCmd.Flags().BoolVar(&lazyBinds, "lazy", false, "print the lazy binding info")
}

var bindCmd = &cobra.Command{
	Use:   "bind <macho>",
	Short: "Print the dyld binding info",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openImage(args[0])
		if err != nil {
			return err
		}

		var binds []classdump.Bind
		var err2 error
		switch {
		case weakBinds:
			binds, err2 = f.GetWeakBinds()
		case lazyBinds:
			binds, err2 = f.GetLazyBinds()
		default:
			binds, err2 = f.GetBinds()
		}
		if err2 != nil {
			return err2
		}

		for _, bind := range binds {
			fmt.Println(bind)
		}

		return nil
	},
}
