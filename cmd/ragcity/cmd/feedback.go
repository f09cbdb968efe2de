package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/deesatzed/newragcity-sub001/internal/search"
	"github.com/deesatzed/newragcity-sub001/internal/ui"
)

func newFeedbackCmd() *cobra.Command {
	var queryType string

	cmd := &cobra.Command{
		Use:   "feedback <query> <predicted> <actual>",
		Short: "Record a calibration feedback outcome",
		Long: `Record how accurate a search result turned out to be.

predicted is the confidence the engine reported; actual is the observed
accuracy, both in [0, 1]. Feedback accumulates per query type and
corrects future confidence scores once enough samples exist.

Examples:
  ragcity feedback "vacation carryover" 0.91 0.60
  ragcity feedback "pto accrual" 0.85 0.90 --type policy_lookup`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedback(cmd.Context(), cmd, args[0], args[1], args[2], queryType)
		},
	}

	cmd.Flags().StringVarP(&queryType, "type", "t", "",
		"Query type (policy_lookup, procedural, factual, general); classified from the query when empty")
	return cmd
}

func runFeedback(ctx context.Context, cmd *cobra.Command, query, predictedArg, actualArg, queryType string) error {
	renderer := ui.NewRenderer(cmd.OutOrStdout())

	predicted, err := strconv.ParseFloat(predictedArg, 64)
	if err != nil {
		err = fmt.Errorf("invalid predicted confidence %q: %w", predictedArg, err)
		renderer.Error(err)
		return err
	}
	actual, err := strconv.ParseFloat(actualArg, 64)
	if err != nil {
		err = fmt.Errorf("invalid actual accuracy %q: %w", actualArg, err)
		renderer.Error(err)
		return err
	}

	qt := search.QueryType(queryType)
	switch qt {
	case search.QueryTypePolicyLookup, search.QueryTypeProcedural, search.QueryTypeFactual, search.QueryTypeGeneral:
	case "":
		qt = search.NewPatternClassifier().Classify(ctx, query)
	default:
		err = fmt.Errorf("unknown query type %q", queryType)
		renderer.Error(err)
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		renderer.Error(err)
		return err
	}

	cal, fs, err := openCalibrator(cfg)
	if err != nil {
		renderer.Error(err)
		return err
	}
	defer fs.Close()

	if err := cal.AddFeedback(ctx, query, predicted, actual, qt); err != nil {
		renderer.Error(err)
		return err
	}

	slog.Info("feedback_recorded",
		slog.String("query_type", string(qt)),
		slog.Float64("predicted", predicted),
		slog.Float64("actual", actual))
	fmt.Fprintf(cmd.OutOrStdout(), "recorded feedback for %s query\n", qt)
	return nil
}
