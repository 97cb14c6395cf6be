package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chartsrv/chartsrv/internal/assets"
)

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Print the OBJL object-class dictionary as JSON",
	RunE:  runDict,
}

func init() {
	rootCmd.AddCommand(dictCmd)
}

func runDict(cmd *cobra.Command, args []string) error {
	data, err := json.MarshalIndent(assets.ClassDict(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dictionary: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
