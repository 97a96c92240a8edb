package cmd

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ardanlabs/glgen/loader"
	"github.com/ardanlabs/glgen/platform"
)

func NewProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Resolve every function against the OpenGL driver on this machine",
		Args:  cobra.NoArgs,
		RunE:  probeHandler,
	}

	cmd.Flags().Bool("missing", false, "List the functions that could not be resolved")

	return cmd
}

// probeOpener is replaced in tests.
var probeOpener loader.Opener = loader.Open

func probeHandler(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	_, res, err := resolveRegistry(cfg, logger)
	if err != nil {
		return err
	}

	table := res.Table()
	l := loader.New(platform.ForGOOS(runtime.GOOS), probeOpener, logger)

	failures, err := l.Init(table)
	if err != nil {
		return err
	}

	missing := make(map[string]bool)
	for _, name := range l.Missing() {
		missing[name] = true
	}

	var data [][]string
	for _, vf := range table {
		var resolved int
		for _, f := range vf.Functions {
			if !missing[f.Name] {
				resolved++
			}
		}
		data = append(data, []string{
			vf.Guard,
			strconv.Itoa(len(vf.Functions)),
			strconv.Itoa(resolved),
			strconv.Itoa(len(vf.Functions) - resolved),
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Library: %s\n\n", l.Library())

	tw := tablewriter.NewWriter(out)
	tw.SetHeader([]string{"FEATURE", "FUNCTIONS", "RESOLVED", "MISSING"})
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderLine(false)
	tw.SetBorder(false)
	tw.SetNoWhiteSpace(true)
	tw.SetTablePadding("    ")
	tw.AppendBulk(data)
	tw.Render()

	fmt.Fprintf(out, "\nFailures: %d of %d\n", failures, table.Len())

	if showMissing, _ := cmd.Flags().GetBool("missing"); showMissing && failures > 0 {
		fmt.Fprintf(out, "Missing: %s\n", strings.Join(l.Missing(), ", "))
	}

	return nil
}
