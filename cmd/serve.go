// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/pv-montecarlo/common"
	"github.com/penny-vault/pv-montecarlo/middleware"
	"github.com/penny-vault/pv-montecarlo/observability/opentelemetry"
	"github.com/penny-vault/pv-montecarlo/router"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	viper.BindEnv("server.allow_origins", "PVMC_ALLOW_ORIGINS")
	serveCmd.Flags().String("allow-origins", "*", "Comma separated list of origins allowed to call the API")
	viper.BindPFlag("server.allow_origins", serveCmd.Flags().Lookup("allow-origins"))

	viper.BindEnv("cache.local_size", "PVMC_CACHE_SIZE")
	serveCmd.Flags().Int("cache-size", 128, "Number of seeded responses to keep in memory, 0 disables the cache")
	viper.BindPFlag("cache.local_size", serveCmd.Flags().Lookup("cache-size"))

	viper.BindEnv("otlp.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	viper.BindEnv("otlp.http", "PVMC_OTLP_HTTP")

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pvmc server",
	Long:  `Run HTTP server that implements the Monte Carlo simulation API`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := common.SetupCache(viper.GetInt("cache.local_size")); err != nil {
			return err
		}

		shutdownTracing, err := opentelemetry.Setup()
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to flush traces")
			}
		}()

		app := fiber.New(fiber.Config{
			JSONEncoder: json.Marshal,
			JSONDecoder: json.Unmarshal,
		})

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c
			log.Info().Str("Signal", sig.String()).Msg("shutting down")
			if err := app.Shutdown(); err != nil {
				log.Error().Err(err).Msg("failed to shutdown server")
			}
		}()

		app.Use(cors.New(cors.Config{
			AllowOrigins: viper.GetString("server.allow_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD",
		}))
		app.Use(middleware.NewLogger())
		router.SetupRoutes(app)

		log.Info().Int("Port", viper.GetInt("server.port")).Msg("starting server")
		return app.Listen(":" + viper.GetString("server.port"))
	},
}
