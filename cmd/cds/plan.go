package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cdsplan/internal/model"
	"cdsplan/internal/planner"
)

type planFlags struct {
	manifest    string
	discharge   string
	equipment   string
	seed        int64
	population  int
	generations int
	timeBudget  time.Duration
	json        bool
}

func newPlanCmd(a *app) *cobra.Command {
	f := &planFlags{}
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a discharge sequence",
		Example: `  cds plan --manifest vessel.baplie --discharge order.coprar
  cds plan --manifest vessel.baplie --discharge order.coprar --equipment equipment.csv --seed 42 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, a, f)
		},
	}
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "BAPLIE file")
	cmd.Flags().StringVar(&f.discharge, "discharge", "", "COPRAR file")
	cmd.Flags().StringVar(&f.equipment, "equipment", "", "equipment CSV with a ContainerNumber column")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().IntVar(&f.population, "population", 0, "population size (0 keeps the configured value)")
	cmd.Flags().IntVar(&f.generations, "generations", 0, "generations (0 keeps the configured value)")
	cmd.Flags().DurationVar(&f.timeBudget, "time-budget", 0, "stop after this long, e.g. 2s")
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("manifest")
	_ = cmd.MarkFlagRequired("discharge")
	return cmd
}

func runPlan(cmd *cobra.Command, a *app, f *planFlags) error {
	req := planner.Request{}
	var err error
	if req.Manifest, err = os.ReadFile(f.manifest); err != nil {
		return err
	}
	if req.DischargeOrder, err = os.ReadFile(f.discharge); err != nil {
		return err
	}
	if f.equipment != "" {
		if req.Equipment, err = os.ReadFile(f.equipment); err != nil {
			return err
		}
	}
	req.Optimizer, _ = planner.Apply(a.cfg.Optimizer.Opt(), &model.OptimizerOptions{
		Seed:           f.seed,
		PopulationSize: f.population,
		Generations:    f.generations,
		TimeBudgetMs:   int(f.timeBudget.Milliseconds()),
	})
	if err := req.Optimizer.Validate(); err != nil {
		return err
	}
	ports, err := a.ports()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
	defer stop()
	plan, err := planner.New(planner.WithPorts(ports), planner.WithLogger(a.logger)).Plan(ctx, req, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.json {
		return writeJSON(out, plan)
	}
	fmt.Fprintf(out, "Vessel %s: %d containers, cost %.2f (seed %d, %d generations, %d evaluations, %dms",
		plan.Vessel.VesselName, len(plan.Containers), plan.Cost, plan.Seed, plan.Generations, plan.Evaluations, plan.ElapsedMs)
	if plan.Truncated {
		fmt.Fprint(out, ", time budget reached")
	}
	fmt.Fprint(out, ")\n")
	fmt.Fprintf(out, "terms: weight %.2f, footprint %.2f, imbalance %.2f\n\n",
		plan.Breakdown.Weight, plan.Breakdown.Footprint, plan.Breakdown.Imbalance)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tCONTAINER\tWEIGHT\tFOOTPRINT\tLOCATION\tX:Y:Z")
	for _, c := range plan.Ordered {
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.2f\t%s\t%d:%d:%d\n", c.Seq, c.ContainerNumber, c.Weight, c.Length*c.Width, c.Location,
			c.Coords[0], c.Coords[1], c.Coords[2])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(plan.UnlistedContainers) > 0 {
		fmt.Fprintf(out, "\nnot in equipment list: %s\n", strings.Join(plan.UnlistedContainers, ", "))
	}
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
