package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// healthCmd reports process and storage health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show memory, storage quota and data directory usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := application.Health(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Memory:      %d MB allocated, %d MB from OS\n", h.AllocMB, h.SysMB)
		fmt.Fprintf(out, "GC cycles:   %d\n", h.NumGC)
		fmt.Fprintf(out, "Goroutines:  %d\n", h.Goroutines)
		fmt.Fprintf(out, "Data dir:    %s\n", h.DataDiskSize)
		fmt.Fprintf(out, "Storage:     %s of %s (%.1f%%)\n", h.Storage.Used(), h.Storage.Quota(), h.Storage.Percent())
		return nil
	},
}

// pwaCmd tracks the install prompt
var pwaCmd = &cobra.Command{
	Use:   "pwa",
	Short: "Manage the install prompt flag",
}

var pwaDismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Remember that the install prompt was dismissed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.DismissInstallPrompt(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Install prompt dismissed")
		return nil
	},
}

var pwaStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the install prompt was dismissed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "Install prompt dismissed: %t\n", application.InstallPromptDismissed(cmd.Context()))
		return nil
	},
}

func init() {
	pwaCmd.AddCommand(pwaDismissCmd)
	pwaCmd.AddCommand(pwaStatusCmd)
}
