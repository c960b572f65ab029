package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/flumelog/pkg/projector"
)

// queryCmd groups the relational projector lookups.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Look up indexed messages in the relational projection",
}

// queryKeyCmd represents "query key"
var queryKeyCmd = &cobra.Command{
	Use:   "key <key>",
	Short: "Look up the sequence of the message with the given key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := projector.Open(projectorPath, 0)
		if err != nil {
			fmt.Printf("Error opening projector: %v\n", err)
			return
		}
		defer p.Close()

		seq, err := p.GetSeqByKey(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("%d\n", seq)
	},
}

// queryTypeCmd represents "query type"
var queryTypeCmd = &cobra.Command{
	Use:   "type <content-type>",
	Short: "List the sequences of every message with the given content type",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := projector.Open(projectorPath, 0)
		if err != nil {
			fmt.Printf("Error opening projector: %v\n", err)
			return
		}
		defer p.Close()

		seqs, err := p.GetSeqsByType(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		for _, seq := range seqs {
			fmt.Printf("%d\n", seq)
		}
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(queryKeyCmd)
	queryCmd.AddCommand(queryTypeCmd)
}
