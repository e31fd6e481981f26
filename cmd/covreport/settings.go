package main

import (
	"github.com/spf13/cobra"

	"github.com/jupierce/covreport/pkg/config"
	"github.com/jupierce/covreport/pkg/log"
)

// Flags shared by every subcommand.
var (
	configPath string
	envFile    string
	logDir     string

	// flagSettings receives flag values; only flags the user actually set
	// are copied over the file and environment configuration.
	flagSettings = config.Defaults()
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "TOML configuration file")
	pf.StringVar(&envFile, "env-file", ".env", "Environment file with COVREPORT_* overrides (ignored if missing)")
	pf.StringVar(&logDir, "log-dir", "", "Directory for a timestamped run log (disabled when empty)")
	pf.StringVar(&flagSettings.Verbosity, "verbosity", flagSettings.Verbosity, "Log level: error, info, debug, trace")

	pf.StringArrayVar(&flagSettings.CoverProfiles, "coverprofile", nil, "Go cover profile to read (repeatable, merged)")
	pf.StringVar(&flagSettings.SourceRoot, "source-root", "", "Directory the profile file names are resolved against")
	pf.StringVar(&flagSettings.Module, "module", "", "Module path stripped from profile file names")
	pf.StringVar(&flagSettings.Records, "records", "", "JSON document with file records and call sites")
}

// override copies the value of one flag into the settings. Overrides run
// in declaration order, so later flags of the same group win.
type override struct {
	flag  string
	apply func(dst, src *config.Settings)
}

var sharedOverrides = []override{
	{"verbosity", func(d, s *config.Settings) { d.Verbosity = s.Verbosity }},
	{"coverprofile", func(d, s *config.Settings) { d.CoverProfiles = s.CoverProfiles }},
	{"source-root", func(d, s *config.Settings) { d.SourceRoot = s.SourceRoot }},
	{"module", func(d, s *config.Settings) { d.Module = s.Module }},
	{"records", func(d, s *config.Settings) { d.Records = s.Records }},
}

// loadSettings layers defaults, the config file, the environment and the
// flags set on cmd, in that order.
func loadSettings(cmd *cobra.Command, overrides []override) (config.Settings, error) {
	s := config.Defaults()
	if configPath != "" {
		if err := config.LoadFile(configPath, &s); err != nil {
			return s, err
		}
	}
	if err := config.ApplyEnv(&s, envFile); err != nil {
		return s, err
	}
	for _, o := range append(append([]override(nil), sharedOverrides...), overrides...) {
		if cmd.Flags().Changed(o.flag) {
			o.apply(&s, &flagSettings)
		}
	}
	return s, nil
}

func newLogger(s config.Settings) (*log.Logger, error) {
	level, err := log.ParseLevel(s.Verbosity)
	if err != nil {
		return nil, err
	}
	return log.New(level, logDir)
}
