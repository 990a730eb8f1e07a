package arg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SoarinFerret/FocusWarden/internal/config"
	"github.com/SoarinFerret/FocusWarden/internal/ipc"
	"github.com/SoarinFerret/FocusWarden/internal/state"
)

const callTimeout = 5 * time.Second

var (
	v          = viper.New()
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "fwctl",
	Short: "fwctl is the command line tool for FocusWarden",
	Long: `fwctl controls the FocusWarden pomodoro timer via D-Bus and edits its
settings and block list in the state directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(v, configPath)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultPath(), "daemon config file")
	flags.String("bus", "", "D-Bus to use: session or system")
	flags.String("state-dir", "", "state directory shared with focuswardend")
	flags.StringP("output", "o", "text", "output format: text, json or yaml")

	v.BindPFlag("daemon.bus", flags.Lookup("bus"))
	v.BindPFlag("daemon.state_dir", flags.Lookup("state-dir"))
	v.BindPFlag("output", flags.Lookup("output"))
	v.BindEnv("daemon.bus", "FOCUSWARDEN_BUS")
	v.BindEnv("daemon.state_dir", "FOCUSWARDEN_STATE_DIR")
	v.BindEnv("output", "FOCUSWARDEN_OUTPUT")
	setDefaults(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("daemon.bus", "session")
	v.SetDefault("daemon.state_dir", config.DefaultStateDir())
	v.SetDefault("history.path", "")
	v.SetDefault("output", "text")
}

// loadConfig reads the daemon's TOML file so fwctl finds the same bus and
// state directory. A missing file is not an error.
func loadConfig(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

func stateDir() string { return v.GetString("daemon.state_dir") }

func historyPath() string {
	if p := v.GetString("history.path"); p != "" {
		return p
	}
	return filepath.Join(stateDir(), "history.db")
}

func outputFormat() string { return v.GetString("output") }

func openState() (*state.Manager, error) {
	return state.NewManager(stateDir())
}

func connect() (*dbus.Conn, *ipc.Client, error) {
	conn, err := ipc.Connect(v.GetString("daemon.bus"))
	if err != nil {
		return nil, nil, err
	}
	return conn, ipc.NewClient(conn), nil
}

func callContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, callTimeout)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
