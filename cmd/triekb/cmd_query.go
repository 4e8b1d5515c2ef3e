package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var querySnapshot string

var queryCmd = &cobra.Command{
	Use:   "query <pattern>",
	Short: "Match a pattern against a snapshot",
	Long: `Loads a snapshot and matches the given pattern, printing every
binding alternative. Example:

  triekb query --snapshot kb.snapshot '(parent Alice $x)'`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&querySnapshot, "snapshot", "", "snapshot file to query (default: configured path)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	pattern, err := parseTerm(args[0])
	if err != nil {
		return fmt.Errorf("parse pattern: %w", err)
	}

	sp := newSpace()
	path := querySnapshot
	if path == "" {
		path = cfg.Snapshot.Path
	}
	if err := sp.LoadFile(path); err != nil {
		return err
	}

	bs, err := sp.Match(pattern)
	if err != nil {
		return err
	}
	if bs.IsEmpty() {
		fmt.Println("no matches")
		return nil
	}
	for i, alt := range bs.Alternatives() {
		fmt.Printf("match %d:\n", i+1)
		if alt.Len() == 0 {
			fmt.Println("  (ground)")
			continue
		}
		for _, name := range alt.Names() {
			v, _ := alt.Get(name)
			fmt.Printf("  %s = %s\n", name, v)
		}
	}
	return nil
}
