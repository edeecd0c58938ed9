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
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/pv-montecarlo/batch"
	"github.com/penny-vault/pv-montecarlo/input"
	"github.com/penny-vault/pv-montecarlo/summary"
)

var batchFormat string

// batchResult is the json form of one scenario outcome
type batchResult struct {
	Name   string          `json:"name"`
	Seed   uint64          `json:"seed"`
	Report *summary.Report `json:"report,omitempty"`
	Field  string          `json:"field,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func init() {
	viper.BindEnv("batch.concurrency", "PVMC_BATCH_CONCURRENCY")
	batchCmd.Flags().IntP("concurrency", "c", 0, "Number of scenarios to simulate at once (default number of CPUs)")
	viper.BindPFlag("batch.concurrency", batchCmd.Flags().Lookup("concurrency"))

	batchCmd.Flags().StringVar(&batchFormat, "format", formatTable, "output format: table or json")

	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch [flags] ScenarioFile",
	Short: "Run every scenario of a TOML file",
	Long: `Run every [[scenario]] of a TOML file concurrently. Each scenario is
simulated with a seed derived from the file's seed and the scenario name
unless it sets its own, so results are reproducible regardless of order.`,
	Args:       cobra.ExactArgs(1),
	ArgAliases: []string{"ScenarioFile"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchFormat != formatTable && batchFormat != formatJSON {
			return fmt.Errorf("unknown output format %q", batchFormat)
		}

		f, err := batch.Load(args[0])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		results, err := batch.Run(ctx, f, batch.Options{
			Concurrency: viper.GetInt("batch.concurrency"),
			Limits:      input.LimitsFromConfig(),
		})
		if err != nil {
			return err
		}

		failed := 0
		for _, res := range results {
			if res.Err != nil {
				failed++
			}
		}
		log.Info().Int("Scenarios", len(results)).Int("Failed", failed).Msg("batch complete")

		if err := writeBatch(cmd.OutOrStdout(), batchFormat, results); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
		}
		return nil
	},
}

func writeBatch(w io.Writer, format string, results []*batch.Result) error {
	if format == formatJSON {
		out := make([]batchResult, 0, len(results))
		for _, res := range results {
			item := batchResult{Name: res.Name, Seed: res.Seed, Report: res.Report}
			if res.Err != nil {
				item.Field = input.Field(res.Err)
				item.Error = input.Message(res.Err)
			}
			out = append(out, item)
		}

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	for ii, res := range results {
		if ii > 0 {
			fmt.Fprintln(w)
		}
		if res.Err != nil {
			fmt.Fprintf(w, "%s: %s\n", res.Name, input.Message(res.Err))
			continue
		}
		fmt.Fprintf(w, "[%s] seed %d\n", res.Name, res.Seed)
		res.Report.Table(w)
	}
	return nil
}
