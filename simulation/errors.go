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

package simulation

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter = errors.New("invalid simulation parameter")
	ErrCovarianceNotPSD = errors.New("covariance matrix is not positive semi-definite")
	ErrInternal         = errors.New("internal simulation failure")
)

// Field names reported by ParameterError
const (
	FieldKind              = "kind"
	FieldInitialInvestment = "initial_investment"
	FieldMeanReturn        = "mean_return"
	FieldVolatility        = "volatility"
	FieldYears             = "years"
	FieldSimulations       = "simulations"
	FieldAssets            = "assets"
	FieldCorrelation       = "correlation"
	FieldContribution      = "contribution"
	FieldStream            = "stream"
)

// ParameterError reports a request field that is outside of its domain
type ParameterError struct {
	Field  string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// DegeneracyError reports a covariance matrix that cannot be sampled because
// it has a negative eigenvalue
type DegeneracyError struct {
	Assets        int
	Correlation   float64
	MinEigenvalue float64
}

func (e *DegeneracyError) Error() string {
	return fmt.Sprintf("correlation %g across %d assets: minimum eigenvalue %g", e.Correlation, e.Assets, e.MinEigenvalue)
}

func (e *DegeneracyError) Unwrap() error {
	return ErrCovarianceNotPSD
}
