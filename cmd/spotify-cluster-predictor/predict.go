package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justestif/go-spotify-cluster-predictor/internal/clustering"
	"github.com/justestif/go-spotify-cluster-predictor/internal/predict"
	"github.com/justestif/go-spotify-cluster-predictor/internal/spotify"
)

// errTrackLookupDisabled is returned for --track without Spotify credentials.
var errTrackLookupDisabled = errors.New("track lookup needs SPOTIFY_ID and SPOTIFY_SECRET")

func NewPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the cluster of two feature values",
		Long: `Predict the cluster of two feature values. Every other feature is set to 0.
With --track the values are read from Spotify tracks instead of --value-a and --value-b.
--track may be repeated; tracks are looked up concurrently.`,
		Example: `  spotify-cluster-predictor predict --feature-a tempo --value-a 120 --feature-b energy --value-b 0.8`,
		Args:    cobra.NoArgs,
		RunE:    runPredict,
	}

	cmd.Flags().String("feature-a", string(clustering.Acousticness), "First feature")
	cmd.Flags().Float64("value-a", 0, "Value of the first feature")
	cmd.Flags().String("feature-b", string(clustering.Energy), "Second feature")
	cmd.Flags().Float64("value-b", 0, "Value of the second feature")
	cmd.Flags().StringSlice("track", nil, "Spotify track ID to read feature values from (repeatable)")
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func runPredict(cmd *cobra.Command, _ []string) error {
	featureA, _ := cmd.Flags().GetString("feature-a")
	featureB, _ := cmd.Flags().GetString("feature-b")
	trackIDs, _ := cmd.Flags().GetStringSlice("track")
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := clustering.ParseFeature(featureA)
	if err != nil {
		return err
	}
	b, err := clustering.ParseFeature(featureB)
	if err != nil {
		return err
	}

	if len(trackIDs) == 0 && (!cmd.Flags().Changed("value-a") || !cmd.Flags().Changed("value-b")) {
		return errors.New("--value-a and --value-b are required without --track")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.close()

	if len(trackIDs) > 0 {
		return predictTracks(cmd, app, trackIDs, a, b, asJSON)
	}

	valueA, _ := cmd.Flags().GetFloat64("value-a")
	valueB, _ := cmd.Flags().GetFloat64("value-b")
	result, err := app.service.Predict(cmd.Context(), clustering.Selection{
		FeatureA: a, ValueA: valueA,
		FeatureB: b, ValueB: valueB,
	})
	if err != nil {
		return fmt.Errorf("predicting: %w", err)
	}

	if asJSON {
		return printJSON(cmd, toResultOutput(result))
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	return nil
}

// predictTracks looks up every track and predicts from its two feature
// values. A track that fails is reported and the rest still run.
func predictTracks(cmd *cobra.Command, app *application, trackIDs []string, a, b clustering.Feature, asJSON bool) error {
	if app.tracks == nil {
		return errTrackLookupDisabled
	}

	lookups, err := spotify.NewBatchFetcher(app.tracks).FetchAll(cmd.Context(), trackIDs)
	if err != nil {
		return fmt.Errorf("looking up tracks: %w", err)
	}

	var (
		outputs []resultOutput
		failed  int
	)
	for _, l := range lookups {
		var result *predict.Result
		err := l.Err
		if err == nil {
			result, err = app.service.PredictTrack(cmd.Context(), l.Track, a, b)
		}
		if err != nil {
			failed++
			app.logger.Warn("track prediction failed", zap.String("track_id", l.TrackID), zap.Error(err))
			if !asJSON {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", l.TrackID, err)
			}
			continue
		}

		if asJSON {
			outputs = append(outputs, toResultOutput(result))
			continue
		}
		label := l.TrackID
		if l.Track.Name != "" {
			label = fmt.Sprintf("%s - %s", l.Track.Artist, l.Track.Name)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", label, result.Message)
	}

	if asJSON {
		if err := printJSON(cmd, outputs); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tracks failed", failed, len(trackIDs))
	}
	return nil
}

type resultOutput struct {
	ClusterID   int       `json:"cluster_id"`
	Description string    `json:"description"`
	FeatureA    string    `json:"feature_a"`
	ValueA      float64   `json:"value_a"`
	FeatureB    string    `json:"feature_b"`
	ValueB      float64   `json:"value_b"`
	Features    []float64 `json:"features"`
	Message     string    `json:"message"`
	TrackID     string    `json:"track_id,omitempty"`
}

func toResultOutput(r *predict.Result) resultOutput {
	return resultOutput{
		ClusterID:   r.ClusterID,
		Description: r.Description,
		FeatureA:    r.Selection.FeatureA.String(),
		ValueA:      r.Selection.ValueA,
		FeatureB:    r.Selection.FeatureB.String(),
		ValueB:      r.Selection.ValueB,
		Features:    r.Vector,
		Message:     r.Message,
		TrackID:     r.TrackID,
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
