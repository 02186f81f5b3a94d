package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [file...]",
		Short: "Classify multiple messages in one pass",
		Long: `Classify multiple messages. Each argument is a file containing one
message; with no arguments, stdin is read as one message per line.
Results are printed in input order, and a failure on one message never
aborts the rest of the batch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			texts, err := readBatchInput(args)
			if err != nil {
				return err
			}
			if len(texts) == 0 {
				return fmt.Errorf("no messages to classify")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			result, err := a.engine.AnalyzeBatch(ctx, texts)
			if err != nil {
				return fmt.Errorf("failed to analyze batch: %w", err)
			}

			fmt.Printf("\n=== Batch Results (%d scanned) ===\n", result.TotalScanned)
			for i, item := range result.Results {
				if item.Err != "" {
					fmt.Printf("%3d. ERROR: %s\n", i+1, item.Err)
					fmt.Printf("     %s\n", item.TextPreview)
					continue
				}
				verdict := "safe"
				if item.IsPhishing {
					verdict = "phishing"
				}
				fmt.Printf("%3d. %-8s confidence=%.4f risk=%s\n", i+1, verdict, item.Confidence, item.RiskLevel)
				fmt.Printf("     %s\n", item.TextPreview)
			}
			return nil
		},
	}
	return cmd
}

// readBatchInput collects one message per file argument, or one per
// stdin line when no files are given.
func readBatchInput(args []string) ([]string, error) {
	if len(args) > 0 {
		texts := make([]string, 0, len(args))
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
			texts = append(texts, string(data))
		}
		return texts, nil
	}

	var texts []string
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		texts = append(texts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return texts, nil
}
