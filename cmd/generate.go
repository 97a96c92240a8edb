package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/glgen/config"
	"github.com/ardanlabs/glgen/generator"
)

func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the loader header and source",
		Args:  cobra.NoArgs,
		RunE:  generateHandler,
	}

	addGenerateFlags(cmd)

	return cmd
}

func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Output directory")
	cmd.Flags().Bool("single", false, "Write a single header with the implementation behind FUNGL_IMPLEMENTATION")
	cmd.Flags().Bool("no-header", false, "Do not write the header")
	cmd.Flags().Bool("no-source", false, "Do not write the source")
	cmd.Flags().Bool("no-loader", false, "Leave the runtime loader out of the source")
	cmd.Flags().String("license", "", "File whose text is copied into the generated comment")
	cmd.Flags().Bool("fetch", false, "Download missing inputs first")
}

func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if single, _ := flags.GetBool("single"); single {
		cfg.SeparateFiles = false
	}
	if noHeader, _ := flags.GetBool("no-header"); noHeader {
		cfg.EmitHeader = false
	}
	if noSource, _ := flags.GetBool("no-source"); noSource {
		cfg.EmitSource = false
	}
	if noLoader, _ := flags.GetBool("no-loader"); noLoader {
		cfg.DisableLoader = true
	}
	if flags.Changed("license") {
		cfg.LicenseFile, _ = flags.GetString("license")
	}
}

func generateHandler(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	applyGenerateFlags(cmd, &cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	if fetch, _ := cmd.Flags().GetBool("fetch"); fetch {
		if _, err := fetchInputs(cmd, cfg, false); err != nil {
			return err
		}
	}

	_, res, err := resolveRegistry(cfg, logger)
	if err != nil {
		return err
	}

	khr, err := os.ReadFile(cfg.PlatformHeader)
	if err != nil {
		return fmt.Errorf("reading platform header: %w", err)
	}

	license, err := cfg.License()
	if err != nil {
		return err
	}

	opts := generator.DefaultOptions()
	opts.HeaderName = cfg.HeaderName
	opts.SourceName = cfg.SourceName
	opts.SingleName = cfg.SingleName
	opts.EmitHeader = cfg.EmitHeader
	opts.EmitSource = cfg.EmitSource
	opts.SeparateFiles = cfg.SeparateFiles
	opts.DisableLoader = cfg.DisableLoader
	opts.DebugWrapper = cfg.DebugWrapper
	opts.License = license
	opts.PlatformHeader = string(khr)
	opts.PlatformHeaderSource = cfg.PlatformHeaderURL
	opts.DefaultVersion = cfg.DefaultVersion

	files, err := generator.New(opts, res).Generate()
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		path := filepath.Join(cfg.OutputDir, name)
		if err := os.WriteFile(path, []byte(files[name]), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated: %s\n", path)
	}

	logger.Debug("generation complete",
		"versions", len(res.Versions),
		"functions", res.Table().Len(),
		"symbols", res.Defined.Len())

	return nil
}
