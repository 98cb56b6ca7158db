package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/whisper-dictation/host/internal/log"
	"github.com/whisper-dictation/host/internal/model"
)

const (
	envConfig      = "DICTATIONCONFIG"
	configFileName = "dictation.yaml"
)

var (
	userConfigPath string // /default/config/path/dictation on given OS
	configPath     string // actual config file used
	config         model.Config
	closeLog       = func() error { return nil }

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag
	flagHeadless       bool   // value of run --headless flag
)

func init() {
	d, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	userConfigPath = filepath.Join(d, "dictation")
}

func main() {
	// root flags
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file to load - default is "+configFileName+" in "+userConfigPath+" or in current directory")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")
	runCmd.Flags().BoolVar(&flagHeadless, "headless", false, "run without the tray, quit on SIGINT or SIGTERM")

	// never print messages
	rootCmd.SilenceErrors = true

	// parse or create a config, setup logging
	rootCmd.PersistentPreRunE = initDictation

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	code, err := execute()
	if err != nil {
		slog.Error("dictation failed", "err", err)
	}
	_ = closeLog()
	os.Exit(code)
}

// execute runs the root command. It returns instead of exiting so deferred
// teardown in the commands has completed before the process ends.
func execute() (int, error) {
	if err := rootCmd.Execute(); err != nil {
		return 1, err
	}
	return exitCode, nil
}

var rootCmd = &cobra.Command{
	Use:          "dictation",
	Short:        "Desktop host for the whisper dictation backend",
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run starts the backend worker and shows the tray",
	RunE:  doRun,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "config prints the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", configPath)
		if err != nil {
			return err
		}
		return config.Encode(cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provide version of a dictation host",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout())
	},
}

func printVersion(w io.Writer) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		fmt.Fprintln(w, "dictation: version info not available")
		return
	}

	if configPath != "" {
		fmt.Fprintf(w, "config:    %s\n", configPath)
	}
	fmt.Fprintf(w, "dictation: %s\n", info.Main.Version)
	fmt.Fprintf(w, "go:        %s\n", info.GoVersion)
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			fmt.Fprintf(w, "commit:    %s\n", s.Value)
		case "vcs.time":
			fmt.Fprintf(w, "date:      %s\n", s.Value)
		case "vcs.modified":
			fmt.Fprintf(w, "dirty:     %s\n", s.Value)
		}
	}
	fmt.Fprintln(w)
}

func initDictation(cmd *cobra.Command, _ []string) error {
	env, _ := os.LookupEnv(envConfig)
	path := findConfig(env, flagConfigFilePath, userConfigPath, ".")

	var err error
	if path == "" {
		configPath = filepath.Join(userConfigPath, configFileName)
		config, err = storeDefaultConfig(configPath)
	} else {
		configPath = path
		config, err = loadConfig(configPath)
	}
	if err != nil {
		return err
	}

	// --verbose has a precedence over config file
	if flagVerbose {
		config.Service.Verbose = true
	}

	// initialize logging
	w, closer, err := log.Open(config.Service.Log)
	if err != nil {
		return err
	}
	closeLog = closer
	slog.SetDefault(log.New(w, config.Service.Verbose))

	slog.Debug("dictation", "cmd", cmd.Name(), "configPath", configPath)
	slog.Debug("dictation", "config", config)
	return nil
}

// findConfig returns the config file to load: the env value, then the flag
// value, then the first dictation.yaml in dirs. Empty means none was found.
func findConfig(env, flag string, dirs ...string) string {
	if env != "" {
		return env
	}
	if flag != "" {
		return flag
	}
	for _, d := range dirs {
		path := filepath.Join(d, configFileName)
		if exists(path) {
			return path
		}
	}
	return ""
}

func loadConfig(path string) (model.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Config{}, fmt.Errorf("opening config file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	cfg, err := model.LoadConfig(f)
	if err != nil {
		for _, d := range model.ConfigErrDetails(err) {
			slog.Error("invalid config", d.Attr("detail"))
		}
		return model.Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// storeDefaultConfig writes the default configuration to path.
func storeDefaultConfig(path string) (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return model.Config{}, fmt.Errorf("creating directory %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return model.Config{}, fmt.Errorf("creating file %s: %w", path, err)
	}
	err = cfg.Encode(f)
	err = errors.Join(err, f.Close())
	if err != nil {
		return model.Config{}, fmt.Errorf("storing configuration: %w", err)
	}
	return cfg, nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
