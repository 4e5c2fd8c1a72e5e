package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BeeKIS/honeybee-migrations/internal/model"
	"github.com/BeeKIS/honeybee-migrations/internal/pipeline"
)

// stageCmd builds a command that runs a single pipeline stage.
func stageCmd(name, short, long string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Long:  long,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPipeline(cmd.Context(), name == pipeline.StageDistances, func(p *pipeline.Pipeline) error {
				s, err := p.Stage(name)
				if err != nil {
					return err
				}
				run, err := p.Execute(cmd.Context(), name, s)
				printRun(run)
				return err
			})
		},
	}
}

var (
	chainsCmd = stageCmd(pipeline.StageChains,
		"Reconstruct migration chains",
		"Reads the movement registry, links movements into chains per year and distance threshold, and closes open chains with a synthesized return trip.")
	distancesCmd = stageCmd(pipeline.StageDistances,
		"Route chain movements over the road network",
		"Queries GraphHopper for the road distance, travel time, motorway share and sampled path of every chain movement.")
	costsCmd = stageCmd(pipeline.StageCosts,
		"Calibrate fuel use and price the migrations",
		"Fits fuel consumption against colonies carried and prices fuel and toll for every routed migration before the cutoff date.")
	statsCmd = stageCmd(pipeline.StageStats,
		"Write the yearly migration statistics",
		"Counts beekeepers, migrations, colonies, weekly dynamics, colony packaging, distances and costs per year.")
	modelCmd = stageCmd(pipeline.StageModel,
		"Write the travel cost model",
		"Describes cost per hive per km by load and year and models fuel use for the reference loads.")
	figuresCmd = stageCmd(pipeline.StageFigures,
		"Render the figures",
		"Draws the yearly, weekly, packaging, calibration and cost figures as PNG files.")
	exportCmd = stageCmd(pipeline.StageExport,
		"Export migration paths as a shapefile",
		"Writes every chain movement of the cost threshold as a polyline with chain id, year, colonies and synthesized flag.")
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every stage from chains to figures",
	RunE: func(cmd *cobra.Command, _ []string) error {
		offline, _ := cmd.Flags().GetBool("offline")
		return withPipeline(cmd.Context(), !offline, func(p *pipeline.Pipeline) error {
			run, err := p.Execute(cmd.Context(), "run", p.All(offline)...)
			printRun(run)
			return err
		})
	},
}

func init() {
	runCmd.Flags().Bool("offline", false, "skip routing; reuse the routed workbook of an earlier run")

	for _, c := range []*cobra.Command{chainsCmd, distancesCmd, costsCmd, statsCmd, modelCmd, figuresCmd, exportCmd, runCmd} {
		rootCmd.AddCommand(c)
	}
}

func printRun(run *model.Run) {
	if run == nil {
		return
	}
	formatStages(os.Stdout, run)
	fmt.Fprintf(os.Stdout, "run %s %s\n", truncateID(run.ID), run.Status)
}
