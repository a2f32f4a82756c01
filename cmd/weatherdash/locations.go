package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/lox/weatherdash/internal/store"
)

type LocationsCmd struct {
	List   LocationsListCmd   `cmd:"" default:"withargs" help:"List saved locations."`
	Locate LocationsLocateCmd `cmd:"" help:"Geolocate this machine and save it as the current location."`
	Remove LocationsRemoveCmd `cmd:"" help:"Remove a saved location."`
	Reset  LocationsResetCmd  `cmd:"" help:"Restore the default locations."`
}

type LocationsListCmd struct {
	Filter string `arg:"" optional:"" help:"Only show names or countries containing this text."`
}

func (cmd *LocationsListCmd) Run(cli *CLI) error {
	st, closeDB, err := cli.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	locs, err := st.LoadLocations()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOUNTRY\tLAT,LON\tCURRENT")
	for _, l := range store.FilterLocations(locs, cmd.Filter) {
		current := ""
		if l.IsCurrent {
			current = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.Name, l.Country, l.Query(), current)
	}
	return tw.Flush()
}

type LocationsLocateCmd struct{}

func (cmd *LocationsLocateCmd) Run(cli *CLI) error {
	st, closeDB, err := cli.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	ctrl, err := cli.newController(st)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := ctrl.Locate(ctx); err != nil {
		return err
	}
	s := ctrl.State()
	fmt.Printf("saved current location %s (%s)\n", s.Selected.Label(), s.Selected.Query())
	return nil
}

type LocationsRemoveCmd struct {
	ID string `arg:"" help:"Location id."`
}

func (cmd *LocationsRemoveCmd) Run(cli *CLI) error {
	st, closeDB, err := cli.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	_, removed, err := st.RemoveLocation(cmd.ID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("no saved location with id %q", cmd.ID)
	}
	fmt.Printf("removed %s\n", cmd.ID)
	return nil
}

type LocationsResetCmd struct{}

func (cmd *LocationsResetCmd) Run(cli *CLI) error {
	st, closeDB, err := cli.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := st.ResetLocations(); err != nil {
		return err
	}
	fmt.Println("restored default locations")
	return nil
}
