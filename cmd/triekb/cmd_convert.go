package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"triekb/internal/snapshot"
)

var convertUncompressed bool

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Rewrite a snapshot, recompressing or stripping compression",
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().BoolVar(&convertUncompressed, "uncompressed", false, "write the body without compression")
}

func runConvert(cmd *cobra.Command, args []string) error {
	arch, err := snapshot.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := snapshot.WriteFile(args[1], arch, !convertUncompressed); err != nil {
		return err
	}
	logger.Info("snapshot converted",
		zap.String("from", args[0]), zap.String("to", args[1]),
		zap.Int("paths", len(arch.Paths)), zap.Bool("compressed", !convertUncompressed))
	return nil
}
