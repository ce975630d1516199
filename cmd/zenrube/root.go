package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vmanoilov/zenrube"
	"github.com/vmanoilov/zenrube/consensus"
)

var (
	flagStyle       string
	flagExperts     []string
	flagExpertsFile string
	flagSequential  bool
	flagProvider    string
	flagModel       string
	flagDebug       bool
	flagNoCache     bool
	flagJSON        bool
)

var rootCmd = &cobra.Command{
	Use:   "zenrube [question]",
	Short: "Zen-inspired multi-expert consensus",
	Long: `zenrube poses one question to a panel of independently configured expert
personas, gathers their answers and synthesizes a single consensus.

A degraded result (one or more experts failed) still exits 0; degradation is
reported in the output payload. Only configuration and argument errors exit
non-zero.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		z, err := zenrube.New()
		if err != nil {
			return err
		}
		if flagExpertsFile != "" {
			if err := z.Experts().RegisterFile(flagExpertsFile); err != nil {
				return err
			}
		}

		var runOpts []consensus.RunOption
		if flagStyle != "" {
			runOpts = append(runOpts, consensus.WithStyle(flagStyle))
		}
		if len(flagExperts) > 0 {
			runOpts = append(runOpts, consensus.WithExperts(flagExperts...))
		}
		if flagSequential {
			runOpts = append(runOpts, consensus.WithSequential())
		}
		if flagProvider != "" {
			runOpts = append(runOpts, consensus.WithProvider(flagProvider))
		}
		if flagModel != "" {
			runOpts = append(runOpts, consensus.WithModel(flagModel))
		}
		if flagDebug {
			runOpts = append(runOpts, consensus.WithDebug())
		}
		if flagNoCache {
			runOpts = append(runOpts, consensus.WithoutCache())
		}

		result, err := z.Consensus(context.Background(), args[0], runOpts...)
		if err != nil {
			return err
		}
		if flagJSON {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		printResult(result)
		return nil
	},
}

func printResult(result *consensus.Result) {
	header := color.New(color.Bold, color.FgCyan)
	warn := color.New(color.FgYellow)
	fail := color.New(color.FgRed)

	header.Printf("Consensus (%s, provider %s)\n", result.SynthesisStyle, result.Provider)
	fmt.Printf("Run %s at %s\n\n", result.ExecutionID, result.Timestamp.Format("2006-01-02 15:04:05 MST"))

	for _, resp := range result.Responses {
		if resp.Succeeded() {
			header.Printf("* %s", resp.Name)
			fmt.Printf(" (%.2fs)\n%s\n\n", resp.DurationSeconds, resp.Response)
		} else {
			fail.Printf("* %s failed", resp.Name)
			fmt.Printf(" (%.2fs): %s\n\n", resp.DurationSeconds, resp.Error)
		}
	}

	if result.Consensus != "" {
		header.Println("=== Consensus ===")
		fmt.Println(result.Consensus)
	}
	for _, w := range result.Warnings {
		warn.Printf("warning: %s\n", w)
	}
	if result.Degraded {
		warn.Println("result is degraded")
	}
}

// Execute runs the root command. Configuration and argument errors exit
// non-zero; a degraded-but-completed consensus exits 0.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&flagStyle, "style", "", "synthesis style (balanced, critical, collaborative)")
	rootCmd.Flags().StringSliceVar(&flagExperts, "experts", nil, "specific expert slugs to consult")
	rootCmd.Flags().StringVar(&flagExpertsFile, "experts-file", "", "YAML file with additional expert definitions")
	rootCmd.Flags().BoolVar(&flagSequential, "sequential", false, "force sequential execution")
	rootCmd.Flags().StringVar(&flagProvider, "provider", "", "provider to use")
	rootCmd.Flags().StringVar(&flagModel, "model", "", "model to use")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "disable caching for this run")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "emit the raw JSON result")

	rootCmd.AddCommand(expertsCmd)
	rootCmd.AddCommand(versionCmd)
}
