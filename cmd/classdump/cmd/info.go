package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showLoads bool

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolVarP(&showLoads, "loads", "l", false, "print the load commands")
}

var infoCmd = &cobra.Command{
	Use:   "info <macho>",
	Short: "Print the Mach-O header and metadata summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openImage(args[0])
		if err != nil {
			return err
		}

		if showLoads {
			fmt.Println(f.FileTOC.String())
		} else {
			fmt.Println(f.FileTOC.FileHeader.String())
		}

		if id := f.DylibID(); id != nil {
			fmt.Printf("%s %s\n", titleColor("Dylib ID:"), id.Name)
		}
		if uuid := f.UUID(); uuid != nil {
			fmt.Printf("%s %s\n", titleColor("UUID:"), uuid)
		}
		if bv := f.BuildVersion(); bv != nil {
			fmt.Printf("%s %s\n", titleColor("Build:"), bv)
		}
		if sv := f.SourceVersion(); sv != nil {
			fmt.Printf("%s %s\n", titleColor("Source:"), sv)
		}
		if f.IsEncrypted() {
			fmt.Printf("%s image is encrypted\n", titleColor("Encryption:"))
		}

		if f.HasObjC() {
			fmt.Printf("\n%s\n%s", titleColor("Objective-C"), f.GetObjCToc())
			if info, err := f.GetObjCImageInfo(); err == nil {
				fmt.Println(info.Flags.SwiftVersion())
			}
		} else {
			fmt.Println("\n(no Objective-C metadata)")
		}

		return nil
	},
}
