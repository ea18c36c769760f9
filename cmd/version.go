package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rnwolfe/devlog/internal/version"
)

var (
	versionShort bool
	versionJSON  bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print devlog version",
	RunE:  runVersion,
}

func runVersion(_ *cobra.Command, _ []string) error {
	switch {
	case versionJSON:
		return json.NewEncoder(os.Stdout).Encode(version.Get())
	case versionShort:
		fmt.Println(version.Short())
	default:
		fmt.Printf("devlog %s\n", version.Full())
	}
	return nil
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print build metadata as JSON")
}
