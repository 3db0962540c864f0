package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/evidence"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Print the append-only audit log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := cfg.Data.AuditLog
		if v, _ := cmd.Flags().GetString("log"); v != "" {
			path = v
		}
		lines, err := evidence.ReadLog(path)
		if err != nil {
			return err
		}
		for i, line := range lines {
			b, err := yaml.Marshal(line)
			if err != nil {
				return err
			}
			fmt.Printf("--- entry %d ---\n%s", i+1, b)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(b))
		return nil
	},
}

func init() {
	auditCmd.Flags().String("log", "", "audit log path (overrides config)")
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(configCmd)
}
