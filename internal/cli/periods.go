package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/SscSPs/schoolbooks/internal/dto"
)

func newCreatePeriodCommand() *cobra.Command {
	var name, start, end string
	cmd := &cobra.Command{
		Use:   "create-period",
		Short: "Open an accounting period",
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := dto.ParseDate(start)
			if err != nil {
				return err
			}
			endDate, err := dto.ParseDate(end)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			period, err := a.services.Period.CreatePeriod(cmd.Context(), name, startDate, endDate, actingAs)
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.ToPeriodResponse(*period))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "period name")
	cmd.Flags().StringVar(&start, "start", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last day, inclusive (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newClosePeriodCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "close-period PERIOD_ID",
		Short: "Close an accounting period and carry balances forward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.services.Period.ClosePeriod(cmd.Context(), args[0], actingAs)
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.ToClosePeriodResponse(result))
		},
	}
}

func newTrialBalanceCommand() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Print the trial balance as of a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := dto.ParseDate(asOf)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.services.Reporting.TrialBalance(cmd.Context(), date)
			if err != nil {
				return err
			}
			return printJSON(cmd, dto.ToTrialBalanceResponse(report))
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "report date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("as-of")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Join(errors.New("failed to write output"), err)
	}
	return nil
}
