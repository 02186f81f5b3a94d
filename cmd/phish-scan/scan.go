package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/technova/phishing-shield/internal/core"
	"github.com/technova/phishing-shield/internal/history"
)

func scanCmd() *cobra.Command {
	var (
		inputFile   string
		messageType string
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "scan [text]",
		Short: "Classify a single message",
		Long: `Classify a single message. The text is taken from the argument,
from --file, or from stdin, in that order of preference.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			content, err := readInput(args, inputFile)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			startTime := time.Now()
			result, err := a.engine.Analyze(ctx, content)
			if err != nil {
				return fmt.Errorf("failed to analyze message: %w", err)
			}
			duration := time.Since(startTime)

			printResult(result, duration)

			if save {
				rec := recordFromResult(content, messageType, result)
				if err := a.store.Add(ctx, rec); err != nil {
					return fmt.Errorf("failed to save scan: %w", err)
				}
				a.logger.Info("Scan saved", zap.String("scan_id", rec.ID))
				fmt.Printf("Saved as: %s\n", rec.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputFile, "file", "", "read the message from a file instead of the argument")
	cmd.Flags().StringVar(&messageType, "type", "email", "message type (email, chat)")
	cmd.Flags().BoolVar(&save, "save", false, "persist the scan in the local store")
	return cmd
}

// readInput resolves the message text from argument, file, or stdin.
func readInput(args []string, inputFile string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func recordFromResult(content, messageType string, result *core.ClassificationResult) *core.ScanRecord {
	msgType := core.MessageEmail
	if messageType == "chat" {
		msgType = core.MessageChat
	}

	features := make([]string, 0, len(result.TriggeredFeatures))
	explanations := make([]core.ExplanationEntry, 0, len(result.TriggeredFeatures))
	for _, f := range result.TriggeredFeatures {
		if !f.Detected {
			continue
		}
		features = append(features, f.Name)
		explanations = append(explanations, core.ExplanationEntry{
			Feature:             f.Name,
			Value:               f.Severity * core.ExplanationValueScale,
			Reason:              f.Reason,
			ContributionPercent: f.ContributionPercent,
		})
	}

	return &core.ScanRecord{
		ID:                history.NewRecordID(),
		Timestamp:         time.Now().UTC(),
		MessageType:       msgType,
		Content:           content,
		Verdict:           result.Prediction,
		Confidence:        result.Confidence,
		RiskLevel:         result.RiskLevel,
		TriggeredFeatures: features,
		OperatorDecision:  core.DecisionPending,
		Explainability: &core.Explainability{
			Explanations:     explanations,
			HighlightedLines: result.HighlightedLines,
			ClassPercentages: result.ClassPercentages,
		},
	}
}

func printResult(result *core.ClassificationResult, duration time.Duration) {
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Verdict: %s\n", result.Prediction)
	fmt.Printf("Confidence: %.4f\n", result.Confidence)
	fmt.Printf("Risk level: %s\n", result.RiskLevel)
	fmt.Printf("Class percentages: safe %.1f%% / suspicious %.1f%% / phishing %.1f%%\n",
		result.ClassPercentages[core.VerdictSafe],
		result.ClassPercentages[core.VerdictSuspicious],
		result.ClassPercentages[core.VerdictPhishing])
	fmt.Printf("Explanation: %s\n", result.Explanation)
	fmt.Printf("Processing time: %v\n", duration)

	detected := make([]string, 0, len(result.TriggeredFeatures))
	for _, f := range result.TriggeredFeatures {
		if f.Detected {
			detected = append(detected, fmt.Sprintf("%s (%.0f%%)", f.Name, f.ContributionPercent))
		}
	}
	if len(detected) > 0 {
		fmt.Printf("Triggered features: %s\n", strings.Join(detected, ", "))
	}

	if len(result.HighlightedLines) > 0 {
		fmt.Printf("\n=== Highlighted Lines ===\n")
		for _, line := range result.HighlightedLines {
			fmt.Printf("%4d | %s\n", line.LineNumber, line.LineText)
			fmt.Printf("     | indicators: %s\n", strings.Join(line.Indicators, ", "))
		}
	}
}
