package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/sgnd/ku"
	"github.com/sage-x-project/sgnd/signing"
)

var kuCmd = &cobra.Command{
	Use:   "ku",
	Short: "KU manipulation utilities",
}

var kuSignCmd = &cobra.Command{
	Use:   "sign <ku.json> <priv.pem> <pub.pem>",
	Short: "Sign a KU file in place with an Ed25519 key pair",
	Args:  cobra.ExactArgs(3),
	RunE:  runKUSign,
}

func init() {
	rootCmd.AddCommand(kuCmd)
	kuCmd.AddCommand(kuSignCmd)
}

func runKUSign(cmd *cobra.Command, args []string) error {
	kuPath, privPath, pubPath := args[0], args[1], args[2]

	data, err := os.ReadFile(kuPath)
	if err != nil {
		return fmt.Errorf("read ku file: %w", err)
	}
	k, err := ku.Parse(data)
	if err != nil {
		return fmt.Errorf("parse ku: %w", err)
	}

	privPEM, err := os.ReadFile(privPath)
	if err != nil {
		return fmt.Errorf("read private key: %w", err)
	}
	pubPEM, err := os.ReadFile(pubPath)
	if err != nil {
		return fmt.Errorf("read public key: %w", err)
	}

	signed, err := signing.Sign(k, string(privPEM), string(pubPEM))
	if err != nil {
		return fmt.Errorf("sign ku: %w", err)
	}

	outBytes, err := json.MarshalIndent(signed, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal signed ku: %w", err)
	}

	if err := os.WriteFile(kuPath, outBytes, 0o644); err != nil {
		return fmt.Errorf("write signed ku: %w", err)
	}

	fmt.Printf("Signed KU written to %s\n", kuPath)
	return nil
}
