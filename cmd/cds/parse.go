package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cdsplan/internal/model"
	"cdsplan/internal/planner"
)

type parseFlags struct {
	manifest  string
	discharge string
	json      bool
}

func newParseCmd(a *app) *cobra.Command {
	f := &parseFlags{}
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a BAPLIE manifest and an optional COPRAR discharge order",
		Example: `  cds parse --manifest vessel.baplie
  cds parse --manifest vessel.baplie --discharge order.coprar --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, a, f)
		},
	}
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "BAPLIE file")
	cmd.Flags().StringVar(&f.discharge, "discharge", "", "COPRAR file")
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}

func runParse(cmd *cobra.Command, a *app, f *parseFlags) error {
	manifestData, err := os.ReadFile(f.manifest)
	if err != nil {
		return err
	}
	var dischargeData []byte
	if f.discharge != "" {
		if dischargeData, err = os.ReadFile(f.discharge); err != nil {
			return err
		}
	}
	ports, err := a.ports()
	if err != nil {
		return err
	}
	parsed := planner.New(planner.WithPorts(ports), planner.WithLogger(a.logger)).Parse(manifestData, dischargeData)
	resp := model.ParseResponse{
		Vessel:      parsed.Manifest.Vessel,
		Containers:  parsed.Manifest.Containers,
		Discharge:   parsed.Discharge.Containers,
		Diagnostics: parsed.Diagnostics,
	}
	out := cmd.OutOrStdout()
	if f.json {
		return writeJSON(out, resp)
	}
	v := resp.Vessel
	fmt.Fprintf(out, "Vessel %s voyage %s, carrier %s\n", v.VesselName, v.VesselNumber, v.Carrier)
	fmt.Fprintf(out, "%s -> %s, departs %s, arrives %s\n\n", v.FromPort, v.ToPort, v.StartDate, v.PlannedArrivalDate)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTAINER\tTYPE\tWEIGHT\tL\tW\tH\tLOCATION")
	for _, c := range resp.Containers {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.2f\t%.2f\t%.2f\t%s\n", c.ContainerNumber, c.Type, c.Weight, c.Length, c.Width, c.Height, c.Location)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printDiagnostics(out, resp.Diagnostics)
	return nil
}

func printDiagnostics(out io.Writer, diags map[string]model.Diagnostics) {
	for _, src := range []string{planner.SourceManifest, planner.SourceDischarge} {
		d, ok := diags[src]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "\n%s: %d segments, %d recognized, %d recovered, %d orphaned\n", src, d.Segments, d.Recognized, d.Recovered, d.Orphaned)
		for _, is := range d.Issues {
			fmt.Fprintf(out, "  line %d: %s (%s)\n", is.Line, is.Reason, is.Segment)
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
