package main

import (
	"fmt"
	"os"
	"text/tabwriter"
)

type FetchesCmd struct {
	Limit   int   `default:"20" help:"Number of runs to show."`
	Health  int   `name:"health-days" default:"0" help:"Show per-day totals for this many days instead."`
	Payload int64 `name:"payload" help:"Print a captured error payload by id."`
}

func (cmd *FetchesCmd) Run(cli *CLI) error {
	st, closeDB, err := cli.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	switch {
	case cmd.Payload > 0:
		body, err := st.GetRawPayload(cmd.Payload)
		if err != nil {
			return fmt.Errorf("payload %d: %w", cmd.Payload, err)
		}
		_, err = os.Stdout.Write(append(body, '\n'))
		return err

	case cmd.Health > 0:
		summaries, err := st.FetchHealth(cmd.Health)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "DATE\tTOTAL\tOK\tFAILED\tCACHED")
		for _, h := range summaries {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", h.Date, h.TotalRuns, h.SuccessRuns, h.FailedRuns, h.CachedRuns)
		}
		return nil
	}

	runs, err := st.RecentFetchRuns(cmd.Limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "ID\tSTARTED\tQUERY\tRESULT\tPAYLOADS\tERROR")
	for _, r := range runs {
		result := "ok"
		switch {
		case !r.Success:
			result = "failed"
		case r.Cached:
			result = "cached"
		}

		payloads, err := st.RawPayloadsForRun(r.ID)
		if err != nil {
			return err
		}
		ids := ""
		for i, p := range payloads {
			if i > 0 {
				ids += ","
			}
			ids += fmt.Sprint(p.ID)
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Query, result, ids, r.ErrorMessage.String)
	}
	return nil
}
