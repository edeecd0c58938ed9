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

// Package simulation projects portfolio values under random market returns.
// Every Request is answered with a Matrix of simulated paths, one path per
// row and one column per year. Randomness comes only from the Stream handed
// to Simulate so that seeded runs are reproducible.
package simulation

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/rand"
)

// Kind identifies the scenario a request simulates
type Kind string

const (
	SingleAssetKind Kind = "single_asset"
	MultiAssetKind  Kind = "multi_asset"
	RetirementKind  Kind = "retirement"
)

var displayNames = map[Kind]string{
	SingleAssetKind: "Single Stock",
	MultiAssetKind:  "Multi-Asset",
	RetirementKind:  "Retirement",
}

// Kinds lists the supported scenarios in menu order
func Kinds() []Kind {
	return []Kind{RetirementKind, SingleAssetKind, MultiAssetKind}
}

func (k Kind) String() string {
	return string(k)
}

// DisplayName returns the human readable label of the scenario
func (k Kind) DisplayName() string {
	if name, ok := displayNames[k]; ok {
		return name
	}
	return string(k)
}

// ParseKind accepts either the identifier (single_asset) or the display name
// (Single Stock) of a scenario. Matching is case-insensitive and treats
// spaces, dashes and underscores alike.
func ParseKind(s string) (Kind, error) {
	needle := normalizeKind(s)
	if needle == "" {
		return "", &ParameterError{Field: FieldKind, Reason: "is required"}
	}

	for _, kind := range Kinds() {
		if needle == normalizeKind(string(kind)) || needle == normalizeKind(kind.DisplayName()) {
			return kind, nil
		}
	}

	return "", &ParameterError{Field: FieldKind, Reason: fmt.Sprintf("unknown scenario %q", s)}
}

func normalizeKind(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// Scenario is the scenario specific part of a Request. The set of scenarios is
// closed: SingleAsset, MultiAsset and Retirement.
type Scenario interface {
	Kind() Kind

	validate() error
	contribution() float64
	newFactorSource(req Request, src rand.Source) (factorSource, error)
}

// SingleAsset grows one asset with lognormal annual returns
type SingleAsset struct{}

// MultiAsset holds an equal weighted basket of Assets assets rebalanced every
// year. Every pair of assets shares the same Correlation.
type MultiAsset struct {
	Assets      int
	Correlation float64
}

// Retirement adds Contribution to the portfolio at the start of every year
// before that year's return is applied. A negative contribution is a
// withdrawal.
type Retirement struct {
	Contribution float64
}

func (SingleAsset) Kind() Kind { return SingleAssetKind }
func (MultiAsset) Kind() Kind  { return MultiAssetKind }
func (Retirement) Kind() Kind  { return RetirementKind }

func (SingleAsset) validate() error { return nil }

func (s MultiAsset) validate() error {
	if s.Assets < 1 {
		return &ParameterError{Field: FieldAssets, Reason: "must be at least 1"}
	}
	if math.IsNaN(s.Correlation) || s.Correlation < -1 || s.Correlation > 1 {
		return &ParameterError{Field: FieldCorrelation, Reason: "must be between -1 and 1"}
	}
	return nil
}

func (s Retirement) validate() error {
	if math.IsNaN(s.Contribution) || math.IsInf(s.Contribution, 0) {
		return &ParameterError{Field: FieldContribution, Reason: "must be a finite number"}
	}
	return nil
}

func (SingleAsset) contribution() float64  { return 0 }
func (MultiAsset) contribution() float64   { return 0 }
func (s Retirement) contribution() float64 { return s.Contribution }

// Request describes one simulation run
type Request struct {
	InitialInvestment float64
	MeanReturn        float64
	Volatility        float64
	Years             int
	Simulations       int
	Scenario          Scenario
}

// Kind returns the kind of the request's scenario or an empty Kind if no
// scenario was set
func (req Request) Kind() Kind {
	if req.Scenario == nil {
		return ""
	}
	return req.Scenario.Kind()
}

// Validate checks every precondition that can be checked without building the
// covariance matrix. The first violation is returned as a *ParameterError.
func (req Request) Validate() error {
	switch {
	case !isFinite(req.InitialInvestment) || req.InitialInvestment <= 0:
		return &ParameterError{Field: FieldInitialInvestment, Reason: "must be greater than zero"}
	case !isFinite(req.MeanReturn) || req.MeanReturn <= -1:
		return &ParameterError{Field: FieldMeanReturn, Reason: "must be greater than -1"}
	case !isFinite(req.Volatility) || req.Volatility < 0:
		return &ParameterError{Field: FieldVolatility, Reason: "must not be negative"}
	case req.Years < 1:
		return &ParameterError{Field: FieldYears, Reason: "must be at least 1"}
	case req.Simulations < 1:
		return &ParameterError{Field: FieldSimulations, Reason: "must be at least 1"}
	case req.Scenario == nil:
		return &ParameterError{Field: FieldKind, Reason: "is required"}
	}

	return req.Scenario.validate()
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Matrix holds simulated portfolio values; Matrix[i][t] is the value of path i
// at year t
type Matrix [][]float64

// NewMatrix allocates a rows x cols matrix backed by a single slice
func NewMatrix(rows, cols int) Matrix {
	backing := make([]float64, rows*cols)
	m := make(Matrix, rows)
	for ii := range m {
		m[ii] = backing[ii*cols : (ii+1)*cols : (ii+1)*cols]
	}
	return m
}

// Dims returns the number of paths and the number of years (including year 0)
func (m Matrix) Dims() (paths, years int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// Column returns a copy of every path's value at year t
func (m Matrix) Column(t int) []float64 {
	col := make([]float64, len(m))
	for ii, path := range m {
		col[ii] = path[t]
	}
	return col
}

// Final returns the value of every path at the end of the horizon
func (m Matrix) Final() []float64 {
	_, years := m.Dims()
	if years == 0 {
		return []float64{}
	}
	return m.Column(years - 1)
}
