package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// appendCmd represents the append command
var appendCmd = &cobra.Command{
	Use:   "append <payload>",
	Short: "Append a record to the log",
	Long: `Append a record to the offset log and print the offset it was
assigned.

Example:
  flumelog append '{"value": 1}'`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		l := logFromContext(cmd)
		if l == nil {
			fmt.Println("Error: log not found in context")
			return
		}

		offset, err := l.Append([]byte(args[0]))
		if err != nil {
			fmt.Printf("Error appending record: %v\n", err)
			return
		}

		fmt.Printf("%d\n", offset)
	},
}

func init() {
	rootCmd.AddCommand(appendCmd)
}
