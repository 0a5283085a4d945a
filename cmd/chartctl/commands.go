package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/couchcryptid/natal-chart-service/internal/domain"
	"github.com/couchcryptid/natal-chart-service/internal/interpret"
	"github.com/couchcryptid/natal-chart-service/internal/report"
	"github.com/spf13/cobra"
)

// options are the flags shared by every subcommand.
type options struct {
	date        string
	clock       string
	city        string
	houseSystem string

	fixture   string
	latitude  float64
	longitude float64
	timezone  string
	verbose   bool
}

func (o *options) request() domain.ChartRequest {
	return domain.ChartRequest{
		Date:        o.date,
		Time:        o.clock,
		City:        o.city,
		HouseSystem: o.houseSystem,
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "chartctl",
		Short: "Compute natal charts",
		Long: `chartctl computes a natal chart for a birth date, clock time and place.

By default it uses the ephemeris and Nominatim services named by the service
configuration (EPHEMERIS_URL, NOMINATIM_URL, ...). Pass --fixture to read
longitudes from a YAML file instead, and --tz with --lat/--lon to skip
geocoding.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.date, "date", "", "birth date (YYYY-MM-DD)")
	pf.StringVar(&opts.clock, "time", "", "local birth time (HH:MM, 24h)")
	pf.StringVar(&opts.city, "city", "", "birth place")
	pf.StringVar(&opts.houseSystem, "house-system", "", "placidus or whole_sign (default from HOUSE_SYSTEM)")
	pf.StringVar(&opts.fixture, "fixture", "", "YAML ephemeris fixture to use instead of the ephemeris service")
	pf.Float64Var(&opts.latitude, "lat", 0, "birth latitude, used with --tz")
	pf.Float64Var(&opts.longitude, "lon", 0, "birth longitude, used with --tz")
	pf.StringVar(&opts.timezone, "tz", "", "IANA timezone; skips geocoding when set")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log collaborator calls to stderr")

	root.AddCommand(
		newComputeCmd(opts),
		newElementsCmd(opts),
		newPDFCmd(opts),
	)
	return root
}

func newComputeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "compute",
		Short: "Print the chart and element tally as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildService(opts)
			if err != nil {
				return err
			}
			res, err := svc.Compute(cmd.Context(), opts.request())
			if err != nil {
				return err
			}
			return writeIndented(cmd, res)
		},
	}
}

func newElementsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "elements",
		Short: "Print only the element percentages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildService(opts)
			if err != nil {
				return err
			}
			res, err := svc.Compute(cmd.Context(), opts.request())
			if err != nil {
				return err
			}
			for _, e := range domain.Elements {
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s %3d%%\n", e, res.Elements.Percent(e))
			}
			return nil
		},
	}
}

func newPDFCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Write a PDF chart report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildService(opts)
			if err != nil {
				return err
			}
			res, err := svc.Compute(cmd.Context(), opts.request())
			if err != nil {
				return err
			}
			catalog, err := interpret.Default()
			if err != nil {
				return err
			}
			data, err := report.BuildChartPDF(res.Chart, res.Elements, catalog)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil { //nolint:gosec // report is meant to be shared
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "natal-chart.pdf", "output file")
	return cmd
}

func writeIndented(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
