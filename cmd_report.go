package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chinampa/chat"
	"chinampa/geo"
	"chinampa/layout"
	"chinampa/models"
	"chinampa/report"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	reportLat, reportLon    float64
	reportCity, reportState string
	reportCountry           string
	reportWithChat          bool
	reportWidth             int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the crop report for a coordinate",
	Long: `report fetches the crop report for --lat/--lon from the API and prints it.
The place is reverse-geocoded unless --city, --state and --country are given.
With --chat the assistant panel opens next to the report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := models.Coordinate{Latitude: reportLat, Longitude: reportLon}
		if !c.Valid() {
			return fmt.Errorf("invalid coordinate %s", c)
		}

		place := models.Place{City: reportCity, State: reportState, Country: reportCountry}
		if place.City == "" || place.State == "" || place.Country == "" {
			p, err := geo.NewNominatimGeocoder(cfg.NominatimURL).Reverse(ctx, c)
			if err != nil {
				var ge *geo.Error
				if errors.As(err, &ge) {
					fmt.Fprintln(cmd.ErrOrStderr(), ge.Message())
				}
				return err
			}
			place = p
		}

		page := report.NewPage(report.NewFetcher(cfg.APIURL), place, c, logger.Named("report"))
		panel := layout.SplitPanel{}
		if reportWithChat {
			panel = panel.Toggle()
		}
		reportCols, chatCols := panel.Columns(reportWidth)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, report.Render(page.View()))

		loadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		view := page.Load(loadCtx)
		cancel()
		fmt.Fprintln(out, lipgloss.NewStyle().Width(reportCols).Render(report.Render(view)))

		if !panel.Visible {
			return nil
		}
		fmt.Fprintln(out, lipgloss.NewStyle().Bold(true).Render("Asistente (/salir para terminar)"))
		return runChat(ctx, chat.NewHTTPTransport(cfg.APIURL), cmd.InOrStdin(), out, chatCols)
	},
}

func init() {
	reportCmd.Flags().Float64Var(&reportLat, "lat", 0, "Latitude")
	reportCmd.Flags().Float64Var(&reportLon, "lon", 0, "Longitude")
	reportCmd.Flags().StringVar(&reportCity, "city", "", "City (skips reverse geocoding)")
	reportCmd.Flags().StringVar(&reportState, "state", "", "State")
	reportCmd.Flags().StringVar(&reportCountry, "country", "", "Country")
	reportCmd.Flags().BoolVar(&reportWithChat, "chat", false, "Open the assistant next to the report")
	reportCmd.Flags().IntVar(&reportWidth, "width", 120, "Terminal width")
	reportCmd.MarkFlagRequired("lat")
	reportCmd.MarkFlagRequired("lon")
}
