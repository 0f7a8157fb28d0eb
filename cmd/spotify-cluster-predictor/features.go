package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
)

func NewFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features",
		Short: "List the model's features in column order",
		Long:  `List the audio features the model was fitted on, in column order, with the cluster descriptions.`,
		Args:  cobra.NoArgs,
		RunE:  runFeatures,
	}

	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func runFeatures(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if asJSON {
		clusters := make(map[int]string)
		for _, id := range clustering.ClusterIDs() {
			clusters[id] = clustering.Describe(id)
		}
		return json.NewEncoder(out).Encode(map[string]any{
			"features": clustering.FeatureNames(),
			"fill":     clustering.FillValue,
			"clusters": clusters,
		})
	}

	for i, f := range clustering.FeatureSet {
		fmt.Fprintf(out, "%2d  %s\n", i, f)
	}
	fmt.Fprintf(out, "\nUnselected features are set to %g.\n\nClusters:\n", clustering.FillValue)
	for _, id := range clustering.ClusterIDs() {
		fmt.Fprintf(out, "  %d  %s\n", id, clustering.Describe(id))
	}
	return nil
}
