package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func NewInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show what each OpenGL version contributes",
		Args:  cobra.NoArgs,
		RunE:  inspectHandler,
	}
}

func inspectHandler(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	reg, res, err := resolveRegistry(cfg, logger)
	if err != nil {
		return err
	}

	var data [][]string
	for _, v := range res.Versions {
		data = append(data, []string{
			v.Guard(),
			v.Encoded(),
			strconv.Itoa(len(v.Prefetch) + len(v.Types)),
			strconv.Itoa(len(v.Enums)),
			strconv.Itoa(len(v.Functions)),
		})
	}

	out := cmd.OutOrStdout()

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"FEATURE", "VERSION", "TYPES", "ENUMS", "COMMANDS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Remaining types: %d\n", len(res.Remaining))
	fmt.Fprintf(out, "Symbols: %d\n", res.Defined.Len())
	fmt.Fprintf(out, "Skipped entries: %d\n", reg.Warnings)

	return nil
}
