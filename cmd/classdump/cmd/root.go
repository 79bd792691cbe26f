// Package cmd implements the classdump command line interface.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	classdump "github.com/appsworld/go-classdump"
	"github.com/appsworld/go-classdump/types"
)

var (
	// Verbose boolean flag for verbose logging
	Verbose bool
	// Color boolean flag for colorized output
	Color bool
	// Arch selects a slice from universal binaries
	Arch string
)

var rootCmd = &cobra.Command{
	Use:   "classdump",
	Short: "Dump Objective-C runtime metadata from Mach-O binaries",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if Verbose {
			log.SetLevel(log.DebugLevel)
		}
		color.NoColor = !Color
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	log.SetHandler(clihander.Default)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&Color, "color", false, "colorize output")
	rootCmd.PersistentFlags().StringVarP(&Arch, "arch", "a", "", "which architecture to use for fat/universal Mach-O")

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}

func parseArch(name string) (types.CPU, error) {
	switch strings.ToLower(name) {
	case "":
		return 0, nil
	case "arm64", "arm64e", "aarch64":
		return types.CPUArm64, nil
	case "arm":
		return types.CPUArm, nil
	case "x86_64", "amd64":
		return types.CPUAmd64, nil
	case "i386", "x86":
		return types.CPU386, nil
	default:
		return 0, fmt.Errorf("unsupported architecture %q", name)
	}
}

// openImage opens a Mach-O image honoring the global --arch flag.
func openImage(path string) (*classdump.File, error) {
	cpu, err := parseArch(Arch)
	if err != nil {
		return nil, err
	}
	return classdump.Open(path, classdump.FileConfig{Arch: cpu})
}

var titleColor = color.New(color.Bold, color.Underline).SprintFunc()
