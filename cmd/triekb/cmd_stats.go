package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	statsSnapshot string
	statsJSON     bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize a snapshot: facts, symbols, rules",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsSnapshot, "snapshot", "", "snapshot file (default: configured path)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "emit JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	sp := newSpace()
	path := statsSnapshot
	if path == "" {
		path = cfg.Snapshot.Path
	}
	if err := sp.LoadFile(path); err != nil {
		return err
	}

	st, err := sp.Stats()
	if err != nil {
		return err
	}
	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	fmt.Printf("facts:   %d\nsymbols: %d\nrules:   %d\n", st.Facts, st.Symbols, st.Rules)
	return nil
}
