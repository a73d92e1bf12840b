package util

import "github.com/spf13/viper"

// GetArtifactsDir returns the directory for event logs and reports.
// Set with --artifacts or MCA_ARTIFACTS.
func GetArtifactsDir() string {
	if dir := viper.GetString("artifacts"); dir != "" {
		return dir
	}
	return "artifacts"
}
