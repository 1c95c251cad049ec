package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/geofeatures/internal/feature"
)

var (
	createName  string
	createLat   float64
	createLon   float64
	nearLat     float64
	nearLon     float64
	nearRadiusM float64
)

var featureCmd = &cobra.Command{
	Use:   "feature",
	Short: "Create, process and query features",
}

// withService opens a pool, runs fn with a Service, and prints its result as JSON.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *feature.Service) (any, error)) error {
	ctx := cmd.Context()
	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	out, err := fn(ctx, newService(pool))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var featureCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a queued feature",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *feature.Service) (any, error) {
			id, err := svc.Create(ctx, feature.CreateRequest{Name: createName, Lat: createLat, Lon: createLon})
			if err != nil {
				return nil, err
			}
			return map[string]string{"id": id.String()}, nil
		})
	},
}

var featureProcessCmd = &cobra.Command{
	Use:   "process <id>",
	Short: "Compute or refresh a feature's footprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *feature.Service) (any, error) {
			buffer, err := processBuffer(cmd, svc)
			if err != nil {
				return nil, err
			}
			if err := svc.Process(ctx, args[0], &buffer); err != nil {
				return nil, err
			}
			return map[string]any{"processed": true, "buffer_m": buffer}, nil
		})
	},
}

// processBuffer returns --buffer-m when given, else the configured default.
func processBuffer(cmd *cobra.Command, svc *feature.Service) (float64, error) {
	if !cmd.Flags().Changed("buffer-m") {
		return svc.DefaultBuffer(), nil
	}
	return cmd.Flags().GetFloat64("buffer-m")
}

var featureGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a feature's status and footprint area",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *feature.Service) (any, error) {
			return svc.Get(ctx, args[0])
		})
	},
}

var featureShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the full feature row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *feature.Service) (any, error) {
			return svc.GetFeature(ctx, args[0])
		})
	},
}

var featureFootprintCmd = &cobra.Command{
	Use:   "footprint <id>",
	Short: "Print a feature's footprint as GeoJSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *feature.Service) (any, error) {
			return svc.Footprint(ctx, args[0])
		})
	},
}

var featureNearCmd = &cobra.Command{
	Use:   "near",
	Short: "List features within a radius, nearest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *feature.Service) (any, error) {
			return svc.Near(ctx, feature.NearRequest{Lat: nearLat, Lon: nearLon, RadiusM: nearRadiusM})
		})
	},
}

func init() {
	featureCreateCmd.Flags().StringVar(&createName, "name", "", "feature name")
	featureCreateCmd.Flags().Float64Var(&createLat, "lat", 0, "latitude in degrees")
	featureCreateCmd.Flags().Float64Var(&createLon, "lon", 0, "longitude in degrees")
	_ = featureCreateCmd.MarkFlagRequired("name")
	_ = featureCreateCmd.MarkFlagRequired("lat")
	_ = featureCreateCmd.MarkFlagRequired("lon")

	featureProcessCmd.Flags().Float64("buffer-m", 0, "buffer distance in meters (default feature.default_buffer_m)")

	featureNearCmd.Flags().Float64Var(&nearLat, "lat", 0, "reference latitude")
	featureNearCmd.Flags().Float64Var(&nearLon, "lon", 0, "reference longitude")
	featureNearCmd.Flags().Float64Var(&nearRadiusM, "radius-m", 0, "search radius in meters")
	_ = featureNearCmd.MarkFlagRequired("lat")
	_ = featureNearCmd.MarkFlagRequired("lon")
	_ = featureNearCmd.MarkFlagRequired("radius-m")

	featureCmd.AddCommand(featureCreateCmd, featureProcessCmd, featureGetCmd,
		featureShowCmd, featureFootprintCmd, featureNearCmd)
	rootCmd.AddCommand(featureCmd)
}
