package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	dto "github.com/dropDatabas3/weatherjohn/internal/http/dto/weather"
	"github.com/dropDatabas3/weatherjohn/internal/http/server"
	svc "github.com/dropDatabas3/weatherjohn/internal/http/services/weather"
	"github.com/dropDatabas3/weatherjohn/internal/observability/logger"
)

func newForecastCmd(opts *rootOpts) *cobra.Command {
	var (
		city    string
		lat     string
		lng     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Consulta el clima por ciudad (--city) o coordenadas (--lat --lng) e imprime el JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			city = strings.TrimSpace(city)
			if city == "" && (lat == "" || lng == "") {
				return errors.New("use --city or both --lat and --lng")
			}

			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := cfg.Identity().Validate(); err != nil {
				return err
			}
			app, err := server.Build(cfg, server.BuildInfo{})
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var la, ln float64
			if city != "" {
				coords, err := app.Service.Resolve(ctx, city)
				if err != nil {
					return err
				}
				la, ln = coords.Lat, coords.Lng
				logger.S().Debugf("resolved %q to %v,%v", city, la, ln)
			} else if la, ln, err = svc.ParseCoordinates(lat, lng); err != nil {
				return err
			}

			w, err := app.Service.Forecast(ctx, la, ln)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.WeatherResponse{Weather: w})
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "ciudad a geocodificar")
	cmd.Flags().StringVar(&lat, "lat", "", "latitud")
	cmd.Flags().StringVar(&lng, "lng", "", "longitud")
	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Second, "timeout total")
	return cmd
}
