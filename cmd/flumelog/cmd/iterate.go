package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/flumelog/pkg/offsetlog"
)

var iterateFrom uint64

// iterateCmd represents the iterate command
var iterateCmd = &cobra.Command{
	Use:   "iterate",
	Short: "Stream offset:payload lines from a starting offset to end-of-file",
	Long: `Scan the log from a starting byte offset (default 0) to the end,
printing "offset: payload" for each record.

Example:
  flumelog iterate --from 0`,
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(logPath)
		if err != nil {
			fmt.Printf("Error opening log: %v\n", err)
			return
		}
		defer f.Close()

		if iterateFrom > 0 {
			if _, err := f.Seek(int64(iterateFrom), 0); err != nil {
				fmt.Printf("Error seeking to offset %d: %v\n", iterateFrom, err)
				return
			}
		}

		it := offsetlog.NewIterator(f, resolvedWidth, iterateFrom)
		for {
			offset, payload, ok := it.Next()
			if !ok {
				break
			}
			fmt.Printf("%d: %s\n", offset, payload)
		}
	},
}

func init() {
	rootCmd.AddCommand(iterateCmd)
	iterateCmd.Flags().Uint64Var(&iterateFrom, "from", 0, "Byte offset to start iterating from")
}
