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
	"github.com/rs/zerolog/log"
)

// Simulate runs req.Simulations independent paths over req.Years years and
// returns them as a (Simulations x Years+1) matrix. The request is validated
// before any random number is drawn; on error no matrix is returned.
//
// A panic raised while sampling is recovered and reported as ErrInternal.
func Simulate(req Request, stream *Stream) (m Matrix, err error) {
	if stream == nil {
		return nil, &ParameterError{Field: FieldStream, Reason: "is required"}
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("Panic", r).Object("Request", req).Msg("simulation failed unexpectedly")
			m = nil
			err = ErrInternal
		}
	}()

	factors, err := req.Scenario.newFactorSource(req, stream.src)
	if err != nil {
		return nil, err
	}

	log.Debug().Object("Request", req).Uint64("Seed", stream.seed).Msg("running simulation")

	m = NewMatrix(req.Simulations, req.Years+1)
	for _, path := range m {
		path[0] = req.InitialInvestment
	}

	contribution := req.Scenario.contribution()
	draws := make([]float64, req.Simulations)
	for t := 1; t <= req.Years; t++ {
		factors.drawYear(draws)
		accumulate(m, t, contribution, draws)
	}

	return m, nil
}
