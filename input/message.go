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

package input

import (
	"errors"
	"fmt"

	"github.com/penny-vault/pv-montecarlo/simulation"
)

// Message converts an error from Parse, Params.Request or simulation.Simulate
// into text suitable for showing to a user
func Message(err error) string {
	var (
		fieldErr   *FieldError
		paramErr   *simulation.ParameterError
		degenerate *simulation.DegeneracyError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &fieldErr):
		return fieldErr.Error()
	case errors.As(err, &paramErr):
		return fmt.Sprintf("%s %s.", Label(paramErr.Field), paramErr.Reason)
	case errors.As(err, &degenerate):
		lower := -1 / float64(degenerate.Assets-1)
		return fmt.Sprintf("Correlation %g is not possible across %d assets; it must be at least %.4f.",
			degenerate.Correlation, degenerate.Assets, lower)
	default:
		return "An unexpected error occurred while running the simulation."
	}
}

// Field returns the request field err refers to. Degenerate covariances are
// attributed to the correlation. All other errors return an empty string.
func Field(err error) string {
	var (
		fieldErr *FieldError
		paramErr *simulation.ParameterError
	)

	switch {
	case errors.As(err, &fieldErr):
		return fieldErr.Field
	case errors.As(err, &paramErr):
		return paramErr.Field
	case errors.Is(err, simulation.ErrCovarianceNotPSD):
		return simulation.FieldCorrelation
	default:
		return ""
	}
}
