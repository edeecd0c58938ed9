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
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/pv-montecarlo/handler"
	"github.com/penny-vault/pv-montecarlo/input"
	"github.com/penny-vault/pv-montecarlo/simulation"
	"github.com/penny-vault/pv-montecarlo/summary"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// errInputRejected is returned after the user has been shown why their input
// could not be simulated
type errInputRejected struct {
	err error
}

func (e *errInputRejected) Error() string { return input.Message(e.err) }
func (e *errInputRejected) Unwrap() error { return e.err }

var (
	simulateFormat string
	simulatePaths  bool
	simulateSeed   uint64
)

func init() {
	flags := simulateCmd.Flags()
	flags.String("kind", string(simulation.RetirementKind), "scenario to simulate: retirement, single_asset or multi_asset")
	flags.String("initial", "", "initial investment (defaults to 90,000)")
	flags.String("mean-return", "", "expected annual return as a fraction (defaults to 0.08)")
	flags.String("volatility", "", "annual volatility as a fraction (defaults to 0.10)")
	flags.String("years", "", "number of years to project (defaults to 30)")
	flags.String("simulations", "", "number of simulated paths (defaults to 300)")
	flags.String("assets", "", "number of assets in the basket, multi_asset only (defaults to 12)")
	flags.String("correlation", "", "pairwise correlation between assets, multi_asset only (defaults to 0.5)")
	flags.String("contribution", "", "yearly contribution, negative to withdraw, retirement only (defaults to 20,000)")
	flags.Uint64Var(&simulateSeed, "seed", 0, "random seed; a random one is chosen when not set")
	flags.StringVar(&simulateFormat, "format", formatTable, "output format: table or json")
	flags.BoolVar(&simulatePaths, "paths", false, "include every simulated path in json output")

	rootCmd.AddCommand(simulateCmd)
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a single Monte Carlo projection",
	Long: `Run a single Monte Carlo projection and print the average path together
with the 5th and 95th percentile bands. Values that are not given on the
command line take the defaults of the selected scenario.`,
	Example: `  pvmc simulate --kind retirement --initial 90,000 --contribution -20000 --seed 42`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateFormat != formatTable && simulateFormat != formatJSON {
			return fmt.Errorf("unknown output format %q", simulateFormat)
		}

		req, err := input.Parse(fieldsFromFlags(cmd))
		if err != nil {
			return &errInputRejected{err: err}
		}

		seed := simulation.RandomSeed()
		if cmd.Flags().Changed("seed") {
			seed = simulateSeed
		}

		m, err := simulation.Simulate(req, simulation.NewStream(seed))
		if err != nil {
			log.Error().Err(err).Object("Request", req).Uint64("Seed", seed).Msg("simulation failed")
			return &errInputRejected{err: err}
		}

		report := summary.New(req, m)
		log.Info().Object("Report", report).Uint64("Seed", seed).Msg("simulation complete")

		resp := handler.SimulateResponse{Seed: seed, Report: report}
		if simulatePaths {
			resp.Paths = m
		}
		return writeReport(cmd.OutOrStdout(), simulateFormat, resp)
	},
}

// fieldsFromFlags collects the form values from the command line, filling in
// the defaults of the chosen scenario for flags that were not set
func fieldsFromFlags(cmd *cobra.Command) input.Fields {
	flags := cmd.Flags()
	kindText, _ := flags.GetString("kind")

	defaults := input.Defaults(simulation.RetirementKind)
	if kind, err := simulation.ParseKind(kindText); err == nil {
		defaults = input.Defaults(kind)
	}

	value := func(name, def string) string {
		if !flags.Changed(name) {
			return def
		}
		v, _ := flags.GetString(name)
		return v
	}

	return input.Fields{
		Kind:              kindText,
		InitialInvestment: value("initial", formatFloat(defaults.InitialInvestment)),
		MeanReturn:        value("mean-return", formatFloat(defaults.MeanReturn)),
		Volatility:        value("volatility", formatFloat(defaults.Volatility)),
		Years:             value("years", strconv.Itoa(defaults.Years)),
		Simulations:       value("simulations", strconv.Itoa(defaults.Simulations)),
		Assets:            value("assets", strconv.Itoa(defaults.Assets)),
		Correlation:       value("correlation", formatFloat(defaults.Correlation)),
		Contribution:      value("contribution", formatFloat(defaults.Contribution)),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeReport(w io.Writer, format string, resp handler.SimulateResponse) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	resp.Report.Table(w)
	fmt.Fprintf(w, "Seed: %d\n", resp.Seed)
	return nil
}

// exitCode distinguishes rejected input (2) and impossible correlations (3)
// from every other failure (1)
func exitCode(err error) int {
	switch {
	case errors.Is(err, simulation.ErrInvalidParameter):
		return 2
	case errors.Is(err, simulation.ErrCovarianceNotPSD):
		return 3
	default:
		return 1
	}
}

