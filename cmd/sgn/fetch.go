package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/sgnd/internal/logger"
	"github.com/sage-x-project/sgnd/store"
)

var fetchDB string

var fetchCmd = &cobra.Command{
	Use:   "fetch <cid>",
	Short: "Print the raw KU stored under a CID",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchDB, "db", "", "Path to the index database")
	fetchCmd.MarkFlagRequired("db")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cid := args[0]
	kusDir := filepath.Join(filepath.Dir(fetchDB), "kus")

	st, err := store.Open(fetchDB, kusDir, logger.New(os.Stderr, logger.ErrorLevel))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	raw, err := st.Retrieve(cid)
	if err != nil {
		return fmt.Errorf("retrieve ku: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("unknown cid: %s", cid)
	}

	fmt.Println(string(raw))
	return nil
}
