package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/glgen/config"
	"github.com/ardanlabs/glgen/logutil"
	"github.com/ardanlabs/glgen/parser"
	"github.com/ardanlabs/glgen/resolver"
)

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "glgen",
		Short: "Generate an OpenGL loader from the Khronos registry",
		Long: `glgen reads gl.xml and khrplatform.h and writes a C header declaring every
OpenGL function pointer, constant and type, together with a source file that
resolves the pointers from the system driver at runtime.

Running glgen without a subcommand is the same as "glgen generate".`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
		Args: cobra.NoArgs,
		RunE: generateHandler,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a TOML or YAML configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Show debug logging")
	rootCmd.PersistentFlags().Bool("trace", false, "Log every resolved symbol")
	rootCmd.PersistentFlags().String("registry", "", "Path to gl.xml")
	rootCmd.PersistentFlags().String("platform-header", "", "Path to khrplatform.h")
	rootCmd.PersistentFlags().String("api", "", "Registry API to select (gl, gles2, ...)")
	rootCmd.PersistentFlags().String("versions", "", `Version constraint, e.g. "<= 3.3"`)
	rootCmd.PersistentFlags().String("profile", "", "Profile to select (core or compatibility)")
	rootCmd.PersistentFlags().Bool("strict", false, "Fail on malformed registry entries")

	addGenerateFlags(rootCmd)

	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(
		NewGenerateCmd(),
		NewFetchCmd(),
		NewInspectCmd(),
		NewProbeCmd(),
	)

	return rootCmd
}

// loadConfig layers the config file, the environment and the persistent
// flags, and installs the logger they ask for.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg := config.Default()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, nil, err
		}
	}

	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("registry") {
		cfg.Registry, _ = flags.GetString("registry")
	}
	if flags.Changed("platform-header") {
		cfg.PlatformHeader, _ = flags.GetString("platform-header")
	}
	if flags.Changed("api") {
		cfg.API, _ = flags.GetString("api")
	}
	if flags.Changed("versions") {
		cfg.Versions, _ = flags.GetString("versions")
	}
	if flags.Changed("profile") {
		cfg.Profile, _ = flags.GetString("profile")
	}
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}

	trace, _ := flags.GetBool("trace")
	logger := logutil.NewLogger(cmd.ErrOrStderr(), logutil.Level(cfg.Debug, trace))
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// resolveRegistry parses the configured registry and resolves its features.
func resolveRegistry(cfg config.Config, logger *slog.Logger) (*parser.Registry, *resolver.Result, error) {
	f, err := os.Open(cfg.Registry)
	if err != nil {
		return nil, nil, fmt.Errorf("opening registry: %w", err)
	}
	defer f.Close()

	reg, err := parser.Parse(f, parser.Options{
		API:    cfg.API,
		Strict: cfg.Strict,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", cfg.Registry, err)
	}

	if reg.Warnings > 0 {
		logger.Warn("registry entries skipped", "count", reg.Warnings)
	}

	res, err := resolver.Resolve(reg, resolver.Options{
		API:            cfg.API,
		FeaturePattern: cfg.FeatureRegexp(),
		TypeMarker:     cfg.TypeMarker,
		Versions:       cfg.VersionConstraints(),
		Profile:        cfg.Profile,
		Logger:         logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("resolving features: %w", err)
	}

	return reg, res, nil
}
