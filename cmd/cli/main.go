package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"gorelia/adapters/excel"
	"gorelia/app"
	"gorelia/internal/growth"
	"gorelia/internal/replacement"
	"gorelia/internal/report"
	"gorelia/internal/rocof"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gorelia",
		Short: "Recurrent-event reliability analysis for repairable systems",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newTrendCmd(),
		newGrowthCmd(),
		newReplaceCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var confidence float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze [fleet-file]",
		Short: "Estimate the fleet MCF from a CSV or Excel file",
		Long: `Estimate the nonparametric MCF, fit the power-law model and run
per-system trend tests on a fleet file. Each row holds a system label
followed by its event times; the last time is the retirement age.

Example: gorelia analyze fleet.csv --confidence 0.95`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fleet, err := excel.NewFleetReader(args[0]).Read()
			if err != nil {
				return err
			}

			svc := app.NewAnalysisService(nil, nil)
			analysis, err := svc.Analyze(context.Background(), fleet, confidence)
			if err != nil {
				return err
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(analysis)
			}

			fmt.Print(report.AuditTable(analysis.Audit))
			if m := analysis.Model; m != nil {
				fmt.Printf("\nPower-law model: MCF(t) = (t/%.4g)^%.4g\n", m.Alpha, m.Beta)
				fmt.Printf("  alpha %.6g [%.6g, %.6g]\n", m.Alpha, m.AlphaLower, m.AlphaUpper)
				fmt.Printf("  beta  %.6g [%.6g, %.6g]\n", m.Beta, m.BetaLower, m.BetaUpper)
				fmt.Printf("  fleet trend: %s\n", m.Trend)
			}
			if len(analysis.SystemTrends) > 0 {
				systems := make([]string, 0, len(analysis.SystemTrends))
				for s := range analysis.SystemTrends {
					systems = append(systems, s)
				}
				sort.Strings(systems)
				fmt.Println("\nPer-system trend:")
				for _, s := range systems {
					fmt.Printf("  %-12s %s\n", s, analysis.SystemTrends[s])
				}
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "confidence level for bounds and trend tests")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the full analysis as JSON")
	return cmd
}

func newTrendCmd() *cobra.Command {
	var confidence float64
	var testEnd float64

	cmd := &cobra.Command{
		Use:   "trend [interarrival-times...]",
		Short: "Laplace trend test on failure interarrival times",
		Long: `Run the Laplace test for a trend in the rate of occurrence of
failures. Pass --test-end for a time-terminated test.

Example: gorelia trend 30 20 10 5 2 --confidence 0.90`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			times, err := parseFloats(args)
			if err != nil {
				return err
			}
			res, err := rocof.FromInterarrival(times, rocof.Options{Confidence: confidence, TestEnd: testEnd})
			if err != nil {
				return err
			}

			fmt.Printf("Laplace statistic U = %.4f (critical %.4f / %.4f at %g%%)\n",
				res.U, res.ZCritLower, res.ZCritUpper, res.Confidence*100)
			fmt.Printf("Trend: %s\n", res.Trend)
			if res.ROCOF > 0 {
				fmt.Printf("ROCOF (HPP rate): %.6g\n", res.ROCOF)
			} else {
				fmt.Printf("Power-law intensity: beta=%.4g lambda=%.4g\n", res.BetaHat, res.LambdaHat)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "confidence level for the trend decision")
	cmd.Flags().Float64Var(&testEnd, "test-end", 0, "end of a time-terminated test (0 = failure-terminated)")
	return cmd
}

func newGrowthCmd() *cobra.Command {
	var model string
	var target float64

	cmd := &cobra.Command{
		Use:   "growth [failure-times...]",
		Short: "Fit a reliability growth model to cumulative failure times",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			times, err := parseFloats(args)
			if err != nil {
				return err
			}
			res, err := growth.Fit(times, growth.Options{Model: growth.Model(model), TargetMTBF: target})
			if err != nil {
				return err
			}

			fmt.Printf("Model: %s\n", res.Model)
			if res.Model == growth.CrowAMSAA {
				fmt.Printf("  lambda=%.6g beta=%.6g growth rate=%.4g\n", res.Lambda, res.Beta, res.GrowthRate)
			} else {
				fmt.Printf("  A=%.6g alpha=%.6g\n", res.A, res.Alpha)
			}
			fmt.Printf("  demonstrated MTBF: cumulative %.6g, instantaneous %.6g\n", res.DMTBFCumulative, res.DMTBFInstantaneous)
			if target > 0 {
				fmt.Printf("  time to reach MTBF %g: %.6g\n", target, res.TimeToTarget)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", string(growth.Duane), "growth model: Duane or Crow-AMSAA")
	cmd.Flags().Float64Var(&target, "target", 0, "target MTBF to project a time for")
	return cmd
}

func newReplaceCmd() *cobra.Command {
	var in replacement.Inputs
	var minimalRepair bool

	cmd := &cobra.Command{
		Use:   "replace",
		Short: "Find the cost-optimal preventive replacement time",
		RunE: func(cmd *cobra.Command, args []string) error {
			if minimalRepair {
				in.Policy = replacement.AsGoodAsOld
			}
			res, err := replacement.Optimize(in)
			if err != nil {
				return err
			}

			fmt.Printf("Optimal replacement time: %.6g\n", res.ORT)
			fmt.Printf("Cost per unit time at optimum: %.6g\n", res.MinCost)
			fmt.Printf("Optimal vs run-to-failure cost ratio: %.4g\n", res.OptimalReactiveRatio)
			return nil
		},
	}

	cmd.Flags().Float64Var(&in.CostPM, "cost-pm", 1, "cost of a preventive replacement")
	cmd.Flags().Float64Var(&in.CostCM, "cost-cm", 5, "cost of a corrective replacement")
	cmd.Flags().Float64Var(&in.WeibullAlpha, "alpha", 0, "Weibull scale of the failure distribution")
	cmd.Flags().Float64Var(&in.WeibullBeta, "beta", 0, "Weibull shape of the failure distribution")
	cmd.Flags().BoolVar(&minimalRepair, "minimal-repair", false, "assume as-good-as-old (minimal) repairs")
	return cmd
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as a number", arg)
		}
		out[i] = v
	}
	return out, nil
}
