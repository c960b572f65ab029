package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <offset>",
	Short: "Print the payload at a byte offset",
	Long: `Get the payload stored at a given byte offset in the log.

Example:
  flumelog get 0`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		offset, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			fmt.Printf("Error: invalid offset %q: %v\n", args[0], err)
			return
		}

		l := logFromContext(cmd)
		if l == nil {
			fmt.Println("Error: log not found in context")
			return
		}

		payload, err := l.Get(offset)
		if err != nil {
			fmt.Printf("Error getting record at offset %d: %v\n", offset, err)
			return
		}

		fmt.Printf("%s\n", payload)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
