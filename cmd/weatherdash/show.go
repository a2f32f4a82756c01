package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/lox/weatherdash/internal/dashboard"
	"github.com/lox/weatherdash/internal/forecast"
)

type ShowCmd struct {
	Query string `arg:"" optional:"" help:"City name or LAT,LON. Defaults to London."`
	ID    string `name:"id" help:"Show a saved location by id instead."`
	JSON  bool   `name:"json" help:"Print the raw state as JSON."`
}

func (cmd *ShowCmd) Run(cli *CLI) error {
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

	if err := loadTarget(ctx, ctrl, st, cmd.Query, cmd.ID); err != nil {
		return err
	}

	state := ctrl.State()
	if cmd.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(state); err != nil {
			return err
		}
	} else {
		printState(os.Stdout, state, time.Now())
	}
	if state.Status == dashboard.StatusErrored {
		return errors.New(state.Message)
	}
	return nil
}

type WatchCmd struct {
	Query    string        `arg:"" optional:"" help:"City name or LAT,LON. Defaults to London."`
	ID       string        `name:"id" help:"Watch a saved location by id instead."`
	Interval time.Duration `default:"10m" help:"Refresh interval."`
}

func (cmd *WatchCmd) Run(cli *CLI) error {
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

	unsubscribe := ctrl.Subscribe(watchPrinter(os.Stdout))
	defer unsubscribe()

	if err := loadTarget(ctx, ctrl, st, cmd.Query, cmd.ID); err != nil {
		return err
	}

	dashboard.NewRefresher(ctrl, cmd.Interval).Run(ctx)
	return nil
}

// watchPrinter prints every settled state, separated by blank lines.
func watchPrinter(w io.Writer) func(dashboard.State) {
	first := true
	return func(s dashboard.State) {
		if s.Status == dashboard.StatusLoading {
			return
		}
		if !first {
			fmt.Fprintln(w)
		}
		first = false
		printState(w, s, time.Now())
	}
}

func printState(w io.Writer, s dashboard.State, now time.Time) {
	switch s.Status {
	case dashboard.StatusErrored:
		fmt.Fprintf(w, "error: %s\n", s.Message)
		return
	case dashboard.StatusReady:
	default:
		fmt.Fprintf(w, "%s: %s\n", s.Status, s.Selected.Label())
		return
	}

	snap := s.Snapshot
	cur := snap.Current
	category := forecast.Classify(cur.Condition.Text)

	fmt.Fprintf(w, "%s (%s)\n", s.Selected.Label(), s.Selected.Query())
	fmt.Fprintf(w, "%s %.0f°C %s, feels like %.0f°C\n",
		forecast.Emoji(category, cur.IsDay), cur.TempC, cur.Condition.Text, cur.FeelsLikeC)
	fmt.Fprintf(w, "humidity %d%%, wind %.0f km/h %s, pressure %.0f mb, UV %.0f (%s)\n",
		cur.Humidity, cur.WindKph, cur.WindDir, cur.PressureMb, cur.UV, forecast.UVLevel(cur.UV))
	if cur.LastUpdated != "" {
		fmt.Fprintf(w, "updated %s\n", cur.LastUpdated)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, d := range snap.Days {
		dc := forecast.Classify(d.Condition.Text)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f° / %.0f°\train %d%%\t%s\n",
			forecast.DayLabel(d.Date, now), forecast.ShortDate(d.Date), forecast.Emoji(dc, true),
			d.MaxTempC, d.MinTempC, d.ChanceOfRain, d.Condition.Text)
	}
	tw.Flush()
}
