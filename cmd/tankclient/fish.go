package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/septivank/trackmyfish-client/internal/model"
	"github.com/septivank/trackmyfish-client/internal/validator"
)

const fishbaseDownWarning = `Fishbase Down
Fishbase appears to be down, meaning certain functions such as the auto-population of the
Ecosystem information will not be completed. This is unlikely to be an issue with
TrackMyFish; check https://www.fishbase.de/ for status.`

func newFishCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fish",
		Short: "List, add and remove fish",
	}
	cmd.AddCommand(newFishListCommand(rt), newFishAddCommand(rt), newFishRemoveCommand(rt))
	return cmd
}

func newFishListCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every fish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			// the fish view mounts both: the heartbeat only adds a warning
			monitor := rt.monitor()
			_ = monitor.Refresh(ctx)
			if monitor.Degraded() {
				fmt.Fprintln(rt.out, fishbaseDownWarning)
				fmt.Fprintln(rt.out)
			}

			fish := rt.fishStore()
			if err := fish.List(ctx); err != nil {
				return err
			}
			return printFish(rt.out, fish.Snapshot().Items)
		},
	}
}

func newFishAddCommand(rt *runtime) *cobra.Command {
	var form validator.FishForm

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a fish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fish := rt.fishStore()
			created, err := fish.Create(cmd.Context(), form)
			if err != nil {
				return errorFromSnapshot(fish.Snapshot().Error, err)
			}
			return printFish(rt.out, []model.Fish{created})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&form.Genus, "genus", "", "genus, e.g. Poecilia")
	flags.StringVar(&form.Species, "species", "", "species, e.g. reticulata")
	flags.StringVar(&form.CommonName, "common-name", "", "common name")
	flags.StringVar(&form.Name, "name", "", "name given to the fish")
	flags.StringVar(&form.Color, "color", "", "color")
	flags.StringVar(&form.Gender, "gender", "", "male, female or blank")
	flags.StringVar(&form.PurchaseDate, "purchase-date", "", "purchase date (YYYY-MM-DD or DD/MM/YYYY)")
	flags.StringVar(&form.Count, "count", "", "number of fish")

	return cmd
}

func newFishRemoveCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Remove a fish",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseID(args[0])
			if err != nil {
				return err
			}

			fish := rt.fishStore()
			if err := fish.Remove(cmd.Context(), id); err != nil {
				return errorFromSnapshot(fish.Snapshot().Error, err)
			}
			fmt.Fprintf(rt.out, "removed fish %s\n", id)
			return nil
		},
	}
}

func printFish(out io.Writer, fish []model.Fish) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tGENUS\tSPECIES\tCOMMON NAME\tNAME\tCOLOR\tGENDER\tPURCHASED\tCOUNT\tECOSYSTEM\tTYPE\tLOCATION\tSALINITY\tCLIMATE")
	for _, f := range fish {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			f.ID, f.Genus, f.Species, f.CommonName, f.Name, f.Color, f.DisplayGender(), f.PurchaseDate, f.Count,
			f.EcosystemName, f.EcosystemType, f.EcosystemLocation, f.Salinity, f.Climate)
	}
	return tw.Flush()
}

// errorFromSnapshot prefers the message the store retained, which is what
// a view would show
func errorFromSnapshot(retained string, err error) error {
	if retained == "" {
		return err
	}
	return errors.New(retained)
}
