/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/flumelog/pkg/codec"
	"github.com/ssargent/flumelog/pkg/metrics"
	"github.com/ssargent/flumelog/pkg/offsetlog"
)

type contextKey string

const (
	logContextKey     contextKey = "log"
	metricsContextKey contextKey = "metrics"
)

var (
	dataDir     string
	offsetWidth int

	openLog     *offsetlog.OffsetLog
	openMetrics *metrics.Metrics
	checkpoints *offsetlog.CheckpointStore

	logPath       string
	projectorPath string
	resolvedWidth codec.Width
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flumelog",
	Short: "flumelog - append-only offset log with a relational projection",
	Long: `flumelog is a byte-addressed, append-only log store with a
double-framed on-disk format, plus an indexed projection of structured
messages into a queryable relational view.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(dataDir, 0750); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}

		resolvedWidth = codec.Width4
		if offsetWidth == 8 {
			resolvedWidth = codec.Width8
		}

		checkpointDir := filepath.Join(dataDir, "checkpoints")
		cp, err := offsetlog.OpenCheckpointStore(checkpointDir)
		if err != nil {
			log.Printf("checkpoint store unavailable, continuing without one: %v", err)
			cp = nil
		}
		checkpoints = cp

		m := metrics.New()
		openMetrics = m

		logPath = filepath.Join(dataDir, "flume.log")
		projectorPath = filepath.Join(dataDir, "view.sqlite3")
		var opts []offsetlog.Option
		if cp != nil {
			opts = append(opts, offsetlog.WithCheckpointStore(cp))
		}
		opts = append(opts, offsetlog.WithMetrics(m))

		l, err := offsetlog.Open(logPath, resolvedWidth, opts...)
		if err != nil {
			return fmt.Errorf("failed to open log: %w", err)
		}
		openLog = l

		ctx := context.WithValue(cmd.Context(), logContextKey, l)
		ctx = context.WithValue(ctx, metricsContextKey, m)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if openLog != nil {
			if err := openLog.Close(); err != nil {
				return err
			}
		}
		if checkpoints != nil {
			return checkpoints.Close()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "./data", "Data directory for the log, checkpoints, and projector database")
	rootCmd.PersistentFlags().IntVar(&offsetWidth, "width", 4, "Trailing offset field width in bytes (4 or 8)")
}

func logFromContext(cmd *cobra.Command) *offsetlog.OffsetLog {
	l, _ := cmd.Context().Value(logContextKey).(*offsetlog.OffsetLog)
	return l
}
