package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"triekb/internal/space"
)

var watchSnapshot string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Serve a snapshot with hot reload on file change",
	Long: `Loads a snapshot and keeps it loaded, reloading whenever the file
is rewritten on disk. Useful alongside a producer that periodically
re-publishes the store with 'eval --save'. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchSnapshot, "snapshot", "", "snapshot file (default: configured path)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := watchSnapshot
	if path == "" {
		path = cfg.Snapshot.Path
	}

	sp := newSpace()
	if err := sp.LoadFile(path); err != nil {
		return err
	}
	fmt.Printf("loaded %d facts from %s\n", sp.Len(), path)

	w, err := space.NewWatcher(sp, path, logger)
	if err != nil {
		return err
	}
	if err := w.Start(cmd.Context()); err != nil {
		return err
	}
	defer w.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-cmd.Context().Done():
	}

	st := w.Stats()
	fmt.Printf("reloads: %d, errors: %d\n", st.Reloads, st.Errors)
	return nil
}
