package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"rate-engine/calculator"
)

// 用法示例：
//
//	ratecalc mean 1.1 2.2 3.3
//	ratecalc mid --bids 33.0,33.1 --asks 33.2,33.3
//	ratecalc diff 100 100 101 101
//	ratecalc scale --usdmid 33.1 --bids 1.08 --asks 1.09 --strategy apd
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	strategy  string
	precision uint32
}

func (o *options) arithmetic() (calculator.Arithmetic, error) {
	return calculator.NewFactory(calculator.FactoryConfig{Precision: o.precision}).NewArithmetic(o.strategy)
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "ratecalc",
		Short:        "Exact-decimal rate calculations from the command line",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.strategy, "strategy", string(calculator.DecimalStrategy),
		"calculator strategy: "+strings.Join(calculator.Strategies(), ", "))
	root.PersistentFlags().Uint32Var(&opts.precision, "precision", calculator.DefaultPrecision, "significant digits for the apd strategy")

	root.AddCommand(newMeanCmd(opts), newMidCmd(opts), newDiffCmd(opts), newScaleCmd(opts))
	return root
}

func newMeanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mean VALUE...",
		Short: "Arithmetic mean of the given values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arith, err := opts.arithmetic()
			if err != nil {
				return err
			}
			mean, err := arith.Mean(calculator.Strs(args...))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mean)
			return nil
		},
	}
}

func newMidCmd(opts *options) *cobra.Command {
	var bids, asks []string
	cmd := &cobra.Command{
		Use:   "mid",
		Short: "USDMID: midpoint of the bid mean and the ask mean",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			arith, err := opts.arithmetic()
			if err != nil {
				return err
			}
			mid, err := arith.Mid(calculator.Strs(bids...), calculator.Strs(asks...))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatFloat(mid))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&bids, "bids", nil, "comma separated bids")
	cmd.Flags().StringSliceVar(&asks, "asks", nil, "comma separated asks")
	_ = cmd.MarkFlagRequired("bids")
	_ = cmd.MarkFlagRequired("asks")
	return cmd
}

func newDiffCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "diff BID1 ASK1 BID2 ASK2",
		Short: "Report whether snapshot 2 differs at least 1% from snapshot 1",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			arith, err := opts.arithmetic()
			if err != nil {
				return err
			}
			v := calculator.Strs(args...)
			diverged, err := arith.PercentDiff(v[0], v[1], v[2], v[3])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), diverged)
			return nil
		},
	}
}

func newScaleCmd(opts *options) *cobra.Command {
	var usdmid string
	var bids, asks []string
	cmd := &cobra.Command{
		Use:   "scale",
		Short: "Scale the bid/ask means by USDMID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			arith, err := opts.arithmetic()
			if err != nil {
				return err
			}
			bid, ask, err := arith.Scale(calculator.Str(usdmid), calculator.Strs(bids...), calculator.Strs(asks...))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", formatFloat(bid), formatFloat(ask))
			return nil
		},
	}
	cmd.Flags().StringVar(&usdmid, "usdmid", "", "USDMID to scale by")
	cmd.Flags().StringSliceVar(&bids, "bids", nil, "comma separated bids")
	cmd.Flags().StringSliceVar(&asks, "asks", nil, "comma separated asks")
	_ = cmd.MarkFlagRequired("usdmid")
	_ = cmd.MarkFlagRequired("bids")
	_ = cmd.MarkFlagRequired("asks")
	return cmd
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
