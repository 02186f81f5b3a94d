package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/technova/phishing-shield/internal/core"
)

func healthCmd() *cobra.Command {
	var checkUpdates bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the remote classification service",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			status, err := a.engine.ServiceHealth(ctx)
			if err != nil {
				fmt.Printf("Service: unreachable (%v)\n", err)
				fmt.Println("Classification will use the heuristic fallback")
				return nil
			}
			printHealth("Service", status)

			if checkUpdates {
				updates, err := a.client.CheckUpdates(ctx)
				if err != nil {
					fmt.Printf("Updates: check failed (%v)\n", err)
					return nil
				}
				printHealth("Updates", updates)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkUpdates, "updates", false, "also check for model and ruleset updates")
	return cmd
}

func printHealth(label string, status *core.HealthStatus) {
	fmt.Printf("%s: %s\n", label, status.Status)
	fmt.Printf("  Model loaded: %t\n", status.ModelLoaded)
	fmt.Printf("  Vectorizer loaded: %t\n", status.VectorizerLoaded)
	if status.Version != "" {
		fmt.Printf("  Version: %s\n", status.Version)
	}
	if status.LastUpdated != nil {
		fmt.Printf("  Last updated: %s\n", status.LastUpdated.Format(time.RFC3339))
	}
}
