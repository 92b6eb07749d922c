package cli

import (
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/SscSPs/schoolbooks/internal/core/domain"
	"github.com/SscSPs/schoolbooks/internal/dto"
)

var errDrift = errors.New("materialized balances disagree with the journal")

func newRebuildBalancesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-balances",
		Short: "Discard materialized balances and replay the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			return a.services.Balance.Rebuild(cmd.Context(), actingAs)
		},
	}
}

func newVerifyBalancesCommand() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "verify-balances",
		Short: "Compare materialized balances with a journal replay",
		Long:  `Exits non-zero when any account balance drifted from the journal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			date := domain.DateOnly(time.Now().UTC())
			if asOf != "" {
				parsed, err := dto.ParseDate(asOf)
				if err != nil {
					return err
				}
				date = parsed
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			drifts, err := a.services.Balance.Verify(cmd.Context(), date)
			if err != nil {
				return err
			}
			if drifts == nil {
				drifts = []domain.BalanceDrift{}
			}
			if err := printJSON(cmd, dto.VerifyBalancesResponse{
				AsOf:       dto.FormatDate(date),
				Consistent: len(drifts) == 0,
				Drifts:     drifts,
			}); err != nil {
				return err
			}
			if len(drifts) > 0 {
				a.logger.Error("Balance drift detected", slog.Int("drifts", len(drifts)))
				return errDrift
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "verification date (YYYY-MM-DD, default today)")
	return cmd
}
