package main

import (
	"errors"
	"fmt"

	"chinampa/geo"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	locateCoords  string
	locateAddress string
	locateYes     bool
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Resolve your location into a report route",
	Long: `locate asks for permission, takes the coordinate given with --coords
(or searches --address), reverse-geocodes it and prints the report route.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		nav, err := geo.Resolve(cmd.Context(), buildLocator(cmd), geo.NewNominatimGeocoder(cfg.NominatimURL))
		if err != nil {
			logger.Warn("location failed", zap.Error(err))
			var ge *geo.Error
			if errors.As(err, &ge) {
				fmt.Fprintln(cmd.ErrOrStderr(), ge.Message())
			}
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s, %s, %s (%s)\n", nav.Place.City, nav.Place.State, nav.Place.Country, nav.Coordinate)
		fmt.Fprintf(out, "%s?lat=%f&lon=%f\n", nav.Route, nav.Coordinate.Latitude, nav.Coordinate.Longitude)
		return nil
	},
}

func init() {
	locateCmd.Flags().StringVar(&locateCoords, "coords", "", `Current position as "lat,lon"`)
	locateCmd.Flags().StringVar(&locateAddress, "address", "", "Search this address instead")
	locateCmd.Flags().BoolVarP(&locateYes, "yes", "y", false, "Grant location permission without asking")
}

// buildLocator picks the position source from the flags. Without any,
// the terminal has no position to offer.
func buildLocator(cmd *cobra.Command) geo.Locator {
	var src geo.Locator
	switch {
	case locateAddress != "":
		return geo.AddressLocator{Query: locateAddress, Geocoder: geo.NewNominatimGeocoder(cfg.NominatimURL)}
	case locateCoords != "":
		src = geo.ManualLocator{Input: locateCoords}
	default:
		return geo.UnsupportedLocator{}
	}
	if locateYes {
		return src
	}
	return geo.ConsentLocator{Source: src, In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
}
