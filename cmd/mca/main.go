package main

import (
	"fmt"
	"os"

	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "mca",
		Short: "Music Catalog Analyzer - load, analyze and mine a streaming chart dataset",
		Long: `mca (Music Catalog Analyzer) normalizes a flat CSV of popular tracks into a
relational catalog (SQLite or MySQL), runs seven analytical reports over it and
builds small mood-based playlists.

Typical session:
  mca load spotify-2023.csv
  mca query all
  mca recommend`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.SetVerbose(viper.GetBool("verbose"))
			util.SetQuiet(viper.GetBool("quiet"))
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./configs/mca.yaml)")
	flags.String("driver", "sqlite", "store driver: sqlite or mysql")
	flags.String("db", "mca-catalog.db", "SQLite database file")
	flags.String("host", "localhost", "MySQL host")
	flags.Int("port", 3306, "MySQL port")
	flags.String("user", "root", "MySQL user")
	flags.String("password", "", "MySQL password (prompted when empty and stdin is a terminal)")
	flags.String("database", "spotify_db", "MySQL database name")
	flags.String("artifacts", "artifacts", "directory for event logs and reports")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	for _, name := range []string{"driver", "db", "host", "port", "user", "password", "database", "artifacts", "verbose", "quiet"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("mca")
		viper.SetConfigType("yaml")
	}

	// MCA_DRIVER, MCA_PASSWORD, ...
	viper.SetEnvPrefix("MCA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
