// Package cli implements the hometree command-line interface.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/hometree/internal/paths"
	"github.com/mesh-intelligence/hometree/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// app carries the state shared by one command invocation.
type app struct {
	flags rootFlags
	cfg   *viper.Viper
}

// NewRootCmd creates the top-level "hometree" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "hometree",
		Short: "Live view of the home state tree",
		Long: "hometree loads a home state snapshot, rebuilds it into a tree by path,\n" +
			"and keeps rendered views current from per-path subscriptions.",
		Version: Version,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := paths.ResolveConfigDir(a.flags.configDir)
			if err != nil {
				return fmt.Errorf("resolve config dir: %w", err)
			}
			a.cfg, err = loadConfig(configDir)
			return err
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory holding seed files (default: platform data dir)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	// glog registers -v, -logtostderr and friends on the standard flag set.
	root.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newTreeCmd(a))
	root.AddCommand(newQueryCmd(a))
	root.AddCommand(newBirdseyeCmd(a))
	root.AddCommand(newWatchCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	// Log to stderr unless the user asks for log files.
	_ = flag.Set("logtostderr", "true")
	defer glog.Flush()

	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		glog.Flush()
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to a process exit code. Malformed input is a user
// error; everything else is a system error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrInvalidSelector),
		errors.Is(err, types.ErrInvalidPath),
		errors.Is(err, types.ErrNodeNotFound),
		errors.Is(err, errUsage):
		return exitUserError
	default:
		return exitSysError
	}
}

// errUsage marks errors caused by malformed command input.
var errUsage = errors.New("usage error")
