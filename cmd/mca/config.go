package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/franz/music-catalog/internal/dataset"
	"github.com/franz/music-catalog/internal/report"
	"github.com/franz/music-catalog/internal/session"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/viper"
)

func init() {
	viper.SetDefault("ascii_only", true)
	viper.SetDefault("event_level", "")
}

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (MCA_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// storeConfig builds the store target from flags, environment and config file.
// A MySQL password left empty is prompted for when stdin is a terminal.
func storeConfig() (store.Config, error) {
	cfg := store.Config{
		Driver:   GetConfigString("driver", store.DriverSQLite),
		Path:     GetConfigString("db", "mca-catalog.db"),
		Host:     GetConfigString("host", "localhost"),
		Port:     GetConfigInt("port", 3306),
		User:     GetConfigString("user", "root"),
		Password: viper.GetString("password"),
		Database: GetConfigString("database", "spotify_db"),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	if cfg.Driver == store.DriverMySQL && cfg.Password == "" {
		password, err := util.PromptPassword(fmt.Sprintf("Password for %s: ", cfg))
		if err != nil {
			util.DebugLog("No password prompt: %v", err)
		} else {
			cfg.Password = password
		}
	}
	return cfg, nil
}

// datasetOptions reads the coercion policy overrides (coercion.<column>: null|zero)
func datasetOptions() (dataset.Options, error) {
	policy, err := dataset.ParsePolicy(viper.GetStringMapString("coercion"))
	if err != nil {
		return dataset.Options{}, err
	}
	return dataset.Options{
		Policy:    policy,
		ASCIIOnly: viper.GetBool("ascii_only"),
	}, nil
}

// eventLevel picks the JSONL log level: event_level when set, else from -v/-q
func eventLevel() report.EventLevel {
	if level := viper.GetString("event_level"); level != "" {
		return report.ParseLevel(level)
	}
	switch {
	case viper.GetBool("quiet"):
		return report.LevelWarning
	case viper.GetBool("verbose"):
		return report.LevelDebug
	}
	return report.LevelInfo
}

func newEventLogger() *report.EventLogger {
	logger, err := report.NewEventLogger(util.GetArtifactsDir(), eventLevel())
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	if logger.Path() != "" {
		util.DebugLog("Event log: %s", logger.Path())
	}
	return logger
}

// openSession connects a session to the configured store.
// The caller closes both the session and the logger.
func openSession(ctx context.Context, logger *report.EventLogger) (*session.Session, error) {
	cfg, err := storeConfig()
	if err != nil {
		return nil, err
	}
	opts, err := datasetOptions()
	if err != nil {
		return nil, err
	}

	var prompt passwordPrompt
	if cfg.Driver == store.DriverMySQL && util.IsTerminal(os.Stdin.Fd()) {
		prompt = util.PromptPassword
	}

	sess := session.New(&session.Config{Logger: logger, Dataset: opts})
	util.InfoLog("Connecting to %s", cfg)
	if err := connectSession(ctx, sess.Connect, cfg, prompt); err != nil {
		return nil, err
	}
	return sess, nil
}

// maxPasswordPrompts bounds how often a MySQL password is asked for again
const maxPasswordPrompts = 3

type passwordPrompt func(prompt string) (string, error)

// connectSession connects with cfg. When the store is unreachable or rejects
// the credentials and prompt is set, the password is asked for again.
func connectSession(ctx context.Context, connect func(context.Context, store.Config) error, cfg store.Config, prompt passwordPrompt) error {
	for attempt := 1; ; attempt++ {
		err := connect(ctx, cfg)
		if err == nil {
			return nil
		}
		if !shouldReprompt(cfg, err, attempt, prompt != nil) {
			return err
		}

		util.WarnLog("Cannot connect to %s: %v", cfg, err)
		password, perr := prompt(fmt.Sprintf("Password for %s (attempt %d/%d): ", cfg, attempt+1, maxPasswordPrompts+1))
		if perr != nil {
			util.DebugLog("No password prompt: %v", perr)
			return err
		}
		cfg.Password = password
	}
}

// shouldReprompt decides whether a failed connect is worth another password
func shouldReprompt(cfg store.Config, err error, attempt int, interactive bool) bool {
	return interactive &&
		cfg.Driver == store.DriverMySQL &&
		errors.Is(err, util.ErrConnectivity) &&
		attempt <= maxPasswordPrompts
}
