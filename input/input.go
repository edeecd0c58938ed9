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

// Package input turns user supplied parameters, either raw text from a form
// or typed values from a JSON/TOML document, into simulation requests.
package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/penny-vault/pv-montecarlo/simulation"
)

var (
	ErrEmptyField = errors.New("field is empty")
	ErrNotANumber = errors.New("field is not a number")
)

// Labels shown to users for each request field
var Labels = map[string]string{
	simulation.FieldKind:              "Simulation Type",
	simulation.FieldInitialInvestment: "Initial Investment",
	simulation.FieldMeanReturn:        "Mean Return",
	simulation.FieldVolatility:        "Volatility",
	simulation.FieldYears:             "Years",
	simulation.FieldSimulations:       "Simulations",
	simulation.FieldAssets:            "Assets",
	simulation.FieldCorrelation:       "Correlation",
	simulation.FieldContribution:      "Contribution",
}

// Label returns the user facing name of a request field
func Label(field string) string {
	if label, ok := Labels[field]; ok {
		return label
	}
	return field
}

// FieldError reports a form value that could not be read. It matches both
// its own cause (ErrEmptyField, ErrNotANumber) and
// simulation.ErrInvalidParameter.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	switch e.Err {
	case ErrEmptyField:
		return fmt.Sprintf("%s cannot be empty.", Label(e.Field))
	case ErrNotANumber:
		return fmt.Sprintf("%s must be a valid number.", Label(e.Field))
	default:
		return fmt.Sprintf("%s: %s", Label(e.Field), e.Err)
	}
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func (e *FieldError) Is(target error) bool {
	return target == simulation.ErrInvalidParameter
}

// Fields holds the raw text of every form input. Only the inputs that belong
// to the selected scenario are read.
type Fields struct {
	Kind              string
	InitialInvestment string
	MeanReturn        string
	Volatility        string
	Years             string
	Simulations       string
	Assets            string
	Correlation       string
	Contribution      string
}

// Parse reads the form values into a validated request
func Parse(f Fields) (simulation.Request, error) {
	kind, err := simulation.ParseKind(f.Kind)
	if err != nil {
		return simulation.Request{}, err
	}

	p := &parser{}
	req := simulation.Request{
		InitialInvestment: p.float(simulation.FieldInitialInvestment, f.InitialInvestment),
		MeanReturn:        p.float(simulation.FieldMeanReturn, f.MeanReturn),
		Volatility:        p.float(simulation.FieldVolatility, f.Volatility),
		Years:             p.int(simulation.FieldYears, f.Years),
		Simulations:       p.int(simulation.FieldSimulations, f.Simulations),
	}

	switch kind {
	case simulation.SingleAssetKind:
		req.Scenario = simulation.SingleAsset{}
	case simulation.MultiAssetKind:
		req.Scenario = simulation.MultiAsset{
			Assets:      p.int(simulation.FieldAssets, f.Assets),
			Correlation: p.float(simulation.FieldCorrelation, f.Correlation),
		}
	case simulation.RetirementKind:
		req.Scenario = simulation.Retirement{
			Contribution: p.float(simulation.FieldContribution, f.Contribution),
		}
	}

	if p.err != nil {
		return simulation.Request{}, p.err
	}

	if err := req.Validate(); err != nil {
		return simulation.Request{}, err
	}

	return req, nil
}

// parser remembers the first failure so that fields are reported in form
// order
type parser struct {
	err error
}

func clean(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
}

func (p *parser) float(field, raw string) float64 {
	if p.err != nil {
		return 0
	}
	raw = clean(raw)
	if raw == "" {
		p.err = &FieldError{Field: field, Err: ErrEmptyField}
		return 0
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		p.err = &FieldError{Field: field, Err: ErrNotANumber}
		return 0
	}
	return v
}

func (p *parser) int(field, raw string) int {
	if p.err != nil {
		return 0
	}
	raw = clean(raw)
	if raw == "" {
		p.err = &FieldError{Field: field, Err: ErrEmptyField}
		return 0
	}
	// strconv instead of cast: cast parses with base 0 and reads "030" as octal
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.err = &FieldError{Field: field, Err: ErrNotANumber}
		return 0
	}
	return v
}
