package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/sgnd/canonical"
	"github.com/sage-x-project/sgnd/internal/logger"
	"github.com/sage-x-project/sgnd/ku"
	"github.com/sage-x-project/sgnd/store"
)

var (
	publishFile string
	publishDB   string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a KU file directly into a store",
	RunE:  runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVar(&publishFile, "file", "", "Path to the KU JSON file")
	publishCmd.Flags().StringVar(&publishDB, "db", "", "Path to the index database")
	publishCmd.MarkFlagRequired("file")
	publishCmd.MarkFlagRequired("db")
}

func runPublish(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(publishFile)
	if err != nil {
		return fmt.Errorf("read ku file: %w", err)
	}

	k, err := ku.Parse(data)
	if err != nil {
		return fmt.Errorf("parse ku: %w", err)
	}

	cid, err := ku.CID(k, canonical.AlgoBlake3)
	if err != nil {
		return fmt.Errorf("compute cid: %w", err)
	}

	raw, err := ku.CanonicalBytes(k)
	if err != nil {
		return fmt.Errorf("canonicalize ku: %w", err)
	}

	kusDir := filepath.Join(filepath.Dir(publishDB), "kus")
	st, err := store.Open(publishDB, kusDir, logger.New(os.Stderr, logger.ErrorLevel))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	title := ""
	if v, ok := k.Payload["title"].(string); ok {
		title = v
	}

	if _, err := st.Put(store.Record{CID: cid, Title: title, Type: k.Type, Tags: k.Tags, Hash: cid}, raw); err != nil {
		return fmt.Errorf("store ku: %w", err)
	}

	fmt.Printf("Published KU %s\n", cid)
	return nil
}
