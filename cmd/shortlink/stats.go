package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/shortlink/internal/app"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

var statsFlags struct {
	id     int64
	owner  string
	period string
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the analytics of a link.",
	Long: `Prints the click counters and the per-period breakdowns of a link.

Example:
  shortlink stats --id=42 --owner=user-1 --period=30d`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		period, err := entity.ParsePeriod(statsFlags.period)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg, slog.Default())
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.Analytics.Summarize(cmd.Context(), statsFlags.id, statsFlags.owner, period)
		if err != nil {
			return err
		}

		s := stats.Summary
		cmd.Printf("link %d (%s) -> %s\n", stats.Link.ID, stats.Link.Handle(), stats.Link.Destination)
		cmd.Printf("total clicks: %d, unique visitors: %d\n", s.TotalClicks, s.TotalUniqueVisitors)
		cmd.Printf("last %s: %d clicks, %d unique, %.2f per day\n",
			stats.Period, s.PeriodClicks, s.PeriodUniqueVisitors, s.AverageClicksPerDay)

		for _, b := range []struct {
			name    string
			entries []entity.BreakdownEntry
		}{
			{"devices", stats.Devices},
			{"browsers", stats.Browsers},
			{"countries", stats.Countries},
			{"referrers", stats.Referrers},
		} {
			cmd.Printf("%s:\n", b.name)
			for _, e := range b.entries {
				cmd.Printf("  %-24s %d\n", e.Label, e.Count)
			}
		}

		return nil
	},
}

func init() {
	statsCmd.Flags().Int64Var(&statsFlags.id, "id", 0, "link id")
	statsCmd.Flags().StringVar(&statsFlags.owner, "owner", "", "owner id of the link")
	statsCmd.Flags().StringVar(&statsFlags.period, "period", "7d", "reporting period: 24h, 7d, 30d or 90d")

	statsCmd.MarkFlagRequired("id")
}
