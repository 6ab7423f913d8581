package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/capstudy/internal/models"
	"github.com/harrison/capstudy/internal/spc"
)

// NewExtrapolateCommand creates the extrapolate command
func NewExtrapolateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extrapolate <value>...",
		Short: "Grow a small sample until it passes the normality test",
		Long: `Draw extra values from the normal distribution of a measured sample until
the combined sample passes the Anderson-Darling normality test, or the
attempt budget runs out.

Values may use a comma as decimal separator. Put -- before the values
when the first one is negative.

Examples:
  capstudy extrapolate 10.01 9.98 10.02 10.0 9.99 10.03
  capstudy extrapolate 0.02 0.03 0.01 0.04 0.02 --target-size 50 --non-negative --seed 7`,
		Args: cobra.MinimumNArgs(1),
		RunE: extrapolateCommand,
	}

	cmd.Flags().Int("target-size", 0, "Requested sample size (0 = next available size)")
	cmd.Flags().Uint64("seed", 0, "Random seed for reproducible draws (0 = random)")
	cmd.Flags().Int("max-attempts", 0, "Attempt budget (default from config)")
	cmd.Flags().Bool("non-negative", false, "Fold draws to absolute values")
	cmd.Flags().Bool("values", false, "Print the extrapolated values")

	return cmd
}

func extrapolateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	values := make([]float64, 0, len(args))
	for _, arg := range args {
		v, err := models.ParseDecimal(arg)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", arg, err)
		}
		values = append(values, v)
	}

	target, _ := cmd.Flags().GetInt("target-size")
	seed, _ := cmd.Flags().GetUint64("seed")
	maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
	nonNegative, _ := cmd.Flags().GetBool("non-negative")
	showValues, _ := cmd.Flags().GetBool("values")

	if maxAttempts <= 0 {
		maxAttempts = cfg.Extrapolation.MaxAttempts
	}
	if seed == 0 {
		seed = cfg.Extrapolation.Seed
	}
	opts := []spc.ExtrapolatorOption{
		spc.WithMaxAttempts(maxAttempts),
		spc.WithAvailableSizes(cfg.Extrapolation.AvailableSizes),
	}
	if seed != 0 {
		opts = append(opts, spc.WithSeed(seed))
	}
	x := spc.NewExtrapolator(opts...)

	target = x.TargetFor(len(values), target)
	res, err := x.Extrapolate(cmd.Context(), values, target, nonNegative)
	if err != nil {
		return fmt.Errorf("extrapolation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if !res.Extrapolated {
		fmt.Fprintf(out, "Sample of %d kept as is (target %d).\n", res.OriginalSize, target)
		return nil
	}

	fmt.Fprintf(out, "Extrapolated %d -> %d values in %d of %d attempts\n",
		res.OriginalSize, len(res.Values), res.Attempts, x.MaxAttempts())
	fmt.Fprintf(out, "Anderson-Darling: A² %.4f, p %.4f\n", res.ADStatistic, res.PValue)
	if res.Achieved {
		fmt.Fprintf(out, "Normality achieved\n")
	} else {
		fmt.Fprintf(out, "Normality not achieved; last sample returned\n")
	}

	if sample, err := spc.Describe(res.Values, spc.MinSampleSize); err == nil {
		fmt.Fprintf(out, "Mean %.4g, sigma short %.4g, sigma long %.4g\n", sample.Mean, sample.SigmaShort, sample.SigmaLong)
	}

	if showValues {
		parts := make([]string, len(res.Values))
		for i, v := range res.Values {
			parts[i] = fmt.Sprintf("%.6g", v)
		}
		fmt.Fprintf(out, "Values: %s\n", strings.Join(parts, " "))
	}
	return nil
}
