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

package summary

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Dollars formats v as whole dollars with thousands separators
func Dollars(v float64) string {
	rounded := int64(math.Round(v))
	if rounded < 0 {
		return "-$" + humanize.Comma(-rounded)
	}
	return "$" + humanize.Comma(rounded)
}

// Table writes the year by year average and percentile band of r to w
// followed by risk and depletion lines
func (r *Report) Table(w io.Writer) {
	fmt.Fprintln(w, r.Title)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Year", "Average", "5th Percentile", "95th Percentile"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for t := range r.Average {
		table.Append([]string{
			strconv.Itoa(t),
			Dollars(r.Average[t]),
			Dollars(r.Lower[t]),
			Dollars(r.Upper[t]),
		})
	}
	table.Render()

	fmt.Fprintf(w, "Paths: %d simulated, %d after trimming\n", r.Simulations, r.Retained)
	fmt.Fprintf(w, "Final value: mean %s, median %s\n", Dollars(r.FinalMean), Dollars(r.FinalMedian))
	fmt.Fprintf(w, "Probability of loss: %.1f%% | 5%% VaR: %.1f%% | Max draw down median: %.1f%%, worst 5%%: %.1f%%\n",
		r.Risk.ProbabilityOfLoss*100, r.Risk.ValueAtRisk95*100, r.Risk.MaxDrawDownP50*100, r.Risk.MaxDrawDownWorst5*100)
	if r.Depletion != nil {
		fmt.Fprintln(w, r.Depletion.String())
	}
}
