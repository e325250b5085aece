package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/writewithwrabit/calorietrack/calendar"
	"github.com/writewithwrabit/calorietrack/dashboard"
	"github.com/writewithwrabit/calorietrack/models"
	"github.com/writewithwrabit/calorietrack/store"
)

var (
	reportMonth  string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the daily intake and burned totals for a month",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "Month as YYYY-MM (default current month)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

func runReport(cmd *cobra.Command, args []string) error {
	switch reportFormat {
	case "md", "csv", "json":
	default:
		return fmt.Errorf("unknown format %q", reportFormat)
	}

	ctx := cmd.Context()
	env, err := setup(ctx)
	if err != nil {
		return err
	}
	defer env.db.Close()

	if _, err := env.db.ApplyMigrations(ctx); err != nil {
		return err
	}

	rng := calendar.Resolve(reportMonth, time.Now().In(env.cfg.Location))
	entries := store.New(env.db, env.cfg.Location)
	series, err := dashboard.New(entries, env.log).Aggregate(ctx, rng, env.cfg.UserID)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), rng.MonthSelector(), series, reportFormat)
}

type reportJSON struct {
	Month       string `json:"month"`
	TotalIntake int    `json:"totalIntake"`
	TotalBurned int    `json:"totalBurned"`
	*models.DailySeries
}

func writeReport(w io.Writer, month string, series *models.DailySeries, format string) error {
	intake, burned := series.Totals()

	switch format {
	case "csv":
		cw := csv.NewWriter(w)
		cw.Write([]string{"date", "intake", "burned"})
		for i, label := range series.Labels {
			cw.Write([]string{label, strconv.Itoa(series.Intake[i]), strconv.Itoa(series.Burned[i])})
		}
		cw.Flush()
		return cw.Error()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reportJSON{Month: month, TotalIntake: intake, TotalBurned: burned, DailySeries: series})
	default:
		fmt.Fprintf(w, "# Calories %s\n\n", month)
		fmt.Fprintln(w, "| Date | Intake | Burned |")
		fmt.Fprintln(w, "|------|-------:|-------:|")
		for i, label := range series.Labels {
			fmt.Fprintf(w, "| %s | %d | %d |\n", label, series.Intake[i], series.Burned[i])
		}
		fmt.Fprintf(w, "| **Total** | **%d** | **%d** |\n", intake, burned)
		return nil
	}
}
