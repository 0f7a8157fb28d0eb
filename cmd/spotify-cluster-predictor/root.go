package main

import (
	"github.com/spf13/cobra"

	"github.com/justestif/go-spotify-cluster-predictor/internal/config"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "spotify-cluster-predictor",
		Short:         "Predict the song cluster of two audio features",
		Long:          `Loads a fitted scaler and k-means model and predicts which song cluster a pair of audio feature values belongs to.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	rootCmd.AddCommand(
		NewServeCmd(),
		NewPredictCmd(),
		NewFeaturesCmd(),
	)

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().String("scaler", "", "Scaler artifact location (file path or s3://bucket/key)")
	cmd.PersistentFlags().String("model", "", "Cluster model artifact location (file path or s3://bucket/key)")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
}

// loadConfig reads the config file named by --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("scaler"); v != "" {
		cfg.Artifacts.Scaler = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Artifacts.Model = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, nil
}
