package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	classdump "github.com/appsworld/go-classdump"
	"github.com/appsworld/go-classdump/types/objc"
)

var (
	withIvarOffsets bool
	onlyClass       string
)

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().BoolVarP(&withIvarOffsets, "ivars", "i", false, "print instance variable offsets and sizes")
	dumpCmd.Flags().StringVarP(&onlyClass, "class", "c", "", "dump a single class by name")
}

func renderClass(c *objc.Class) string {
	if withIvarOffsets {
		return c.WithAddrs()
	}
	if Verbose {
		return c.Verbose()
	}
	return c.String()
}

func renderCategory(c *objc.Category) string {
	if withIvarOffsets {
		return c.WithAddrs()
	}
	if Verbose {
		return c.Verbose()
	}
	return c.String()
}

func renderProtocol(p *objc.Protocol) string {
	if withIvarOffsets {
		return p.WithAddrs()
	}
	if Verbose {
		return p.Verbose()
	}
	return p.String()
}

var dumpCmd = &cobra.Command{
	Use:   "dump <macho>",
	Short: "Dump Objective-C class, category and protocol declarations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := openImage(args[0])
		if err != nil {
			return err
		}

		meta, err := f.ExtractObjC(classdump.ObjCConfig{})
		if err != nil {
			return err
		}

		if onlyClass != "" {
			for _, class := range meta.Classes {
				if class.Name == onlyClass {
					fmt.Println(renderClass(class))
					return nil
				}
			}
			return fmt.Errorf("class %s not found", onlyClass)
		}

		if len(meta.Protocols) > 0 {
			fmt.Printf("%s\n\n", titleColor("Protocols"))
			for _, proto := range meta.Protocols {
				fmt.Println(renderProtocol(proto))
			}
		}
		if len(meta.Classes) > 0 {
			fmt.Printf("%s\n\n", titleColor("Classes"))
			for _, class := range meta.Classes {
				fmt.Println(renderClass(class))
			}
		}
		if len(meta.Categories) > 0 {
			fmt.Printf("%s\n\n", titleColor("Categories"))
			for _, cat := range meta.Categories {
				fmt.Println(renderCategory(cat))
			}
		}

		return nil
	},
}
