package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/technova/phishing-shield/internal/core"
	"github.com/technova/phishing-shield/internal/history"
)

func historyCmd() *cobra.Command {
	var (
		search  string
		verdict string
		risk    string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse the merged scan history",
		Long: `Browse scan history merged from the local store and the backend
audit log. Records fetched from the backend are read-only and carry an
id starting with "api-". When one source is unreachable the view still
renders from the other, marked as reduced visibility.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			view, err := a.reconciler.Load(ctx, history.Filters{
				Search:  search,
				Verdict: verdict,
				Risk:    risk,
			})
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}

			printHistory(view, limit)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "case-insensitive substring filter over content and features")
	cmd.Flags().StringVar(&verdict, "verdict", "all", "verdict filter (safe, suspicious, phishing, all)")
	cmd.Flags().StringVar(&risk, "risk", "all", "risk level filter (low, medium, high, critical, all)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of records to display")

	cmd.AddCommand(historyDeleteCmd())
	return cmd
}

func historyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a local scan record",
		Long: `Delete a scan record from the local store by id. Records fetched
from the backend audit log (id prefix "api-") are read-only and cannot
be deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := a.reconciler.Delete(ctx, args[0]); err != nil {
				var roErr *core.ReadOnlyRecordError
				if errors.As(err, &roErr) {
					return fmt.Errorf("record %s belongs to the backend audit log and is read-only", args[0])
				}
				return fmt.Errorf("failed to delete record: %w", err)
			}

			fmt.Printf("Deleted record %s\n", args[0])
			return nil
		},
	}
}

func printHistory(view *history.View, limit int) {
	if view.Sources.Reduced() {
		source := "local store"
		if !view.Sources.RemoteOK {
			source = "backend audit log"
		}
		fmt.Printf("WARNING: %s unreachable, showing reduced visibility\n\n", source)
	}

	if len(view.Records) == 0 {
		fmt.Println("No scan records found")
		return
	}

	records := view.Records
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	fmt.Printf("%-40s %-20s %-6s %-10s %-10s %-5s %s\n",
		"ID", "TIMESTAMP", "TYPE", "VERDICT", "CONFIDENCE", "RISK", "CONTENT")
	for _, rec := range records {
		id := rec.ID
		if rec.ReadOnly() {
			id += " [ro]"
		}
		fmt.Printf("%-40s %-20s %-6s %-10s %-10.4f %-5s %s\n",
			id,
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.MessageType,
			rec.Verdict,
			rec.Confidence,
			riskShort(rec.RiskLevel),
			contentPreview(rec.Content))
	}
	fmt.Printf("\n%d of %d records shown\n", len(records), len(view.Records))
}

func riskShort(level core.RiskLevel) string {
	switch level {
	case core.RiskCritical:
		return "CRIT"
	case core.RiskHigh:
		return "HIGH"
	case core.RiskMedium:
		return "MED"
	default:
		return "LOW"
	}
}

func contentPreview(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	if len(flat) > 60 {
		return flat[:60] + "..."
	}
	return flat
}
