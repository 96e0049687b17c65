package cli

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/hometree/internal/paths"
)

//go:embed example_home.jsonl
var exampleSeed []byte

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create configuration and an example home",
		Long: "Create the configuration directory with a default config.yaml and the data\n" +
			"directory with an example home.jsonl. Existing files are left untouched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd)
		},
	}
}

func (a *app) runInit(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	configPath := filepath.Join(configDir, configFileExt)
	wrote, err := writeConfigIfMissing(configPath)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if wrote {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
	}

	seedPath := paths.ResolveSeed(dataDir, "")
	if _, err := os.Stat(seedPath); os.IsNotExist(err) {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		if err := os.WriteFile(seedPath, exampleSeed, 0o644); err != nil {
			return fmt.Errorf("write example seed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", seedPath)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "hometree initialized")
	return nil
}
