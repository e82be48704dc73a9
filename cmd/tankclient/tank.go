package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/septivank/trackmyfish-client/internal/model"
	"github.com/septivank/trackmyfish-client/internal/validator"
)

func newTankCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tank",
		Short: "List, add and remove water-quality statistics",
	}
	cmd.AddCommand(newTankListCommand(rt), newTankAddCommand(rt), newTankRemoveCommand(rt))
	return cmd
}

func newTankListCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every tank statistic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tank := rt.tankStore()
			if err := tank.List(cmd.Context()); err != nil {
				return err
			}
			return printTankStatistics(rt.out, tank.Snapshot().Items)
		},
	}
}

func newTankAddCommand(rt *runtime) *cobra.Command {
	var form validator.TankStatisticForm

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a tank statistic; omitted readings are recorded as not measured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tank := rt.tankStore()
			created, err := tank.Create(cmd.Context(), form)
			if err != nil {
				return errorFromSnapshot(tank.Snapshot().Error, err)
			}
			return printTankStatistics(rt.out, []model.TankStatistic{created})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&form.TestDate, "test-date", "", "test date (YYYY-MM-DD or DD/MM/YYYY)")
	flags.StringVar(&form.Ammonia, model.ReadingAmmonia, "", "ammonia (ppm)")
	flags.StringVar(&form.PH, model.ReadingPH, "", "pH")
	flags.StringVar(&form.Nitrate, model.ReadingNitrate, "", "nitrate (ppm)")
	flags.StringVar(&form.Nitrite, model.ReadingNitrite, "", "nitrite (ppm)")
	flags.StringVar(&form.GH, model.ReadingGH, "", "general hardness")
	flags.StringVar(&form.KH, model.ReadingKH, "", "carbonate hardness")
	flags.StringVar(&form.Phosphate, model.ReadingPhosphate, "", "phosphate (ppm)")

	return cmd
}

func newTankRemoveCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Remove a tank statistic",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseID(args[0])
			if err != nil {
				return err
			}

			tank := rt.tankStore()
			if err := tank.Remove(cmd.Context(), id); err != nil {
				return errorFromSnapshot(tank.Snapshot().Error, err)
			}
			fmt.Fprintf(rt.out, "removed tank statistic %s\n", id)
			return nil
		},
	}
}

func printTankStatistics(out io.Writer, stats []model.TankStatistic) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTEST DATE\tAMMONIA\tPH\tNITRATE\tNITRITE\tGH\tKH\tPHOSPHATE")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.TestDate,
			reading(s.Ammonia), reading(s.PH), reading(s.Nitrate), reading(s.Nitrite),
			reading(s.GH), reading(s.KH), reading(s.Phosphate))
	}
	return tw.Flush()
}

// reading renders an unmeasured value as a dash
func reading(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
