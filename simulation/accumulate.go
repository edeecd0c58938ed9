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

// accumulate advances every path from year t-1 to year t. The contribution is
// added before the year's factor is applied, so new money earns that year's
// return too. Growth scenarios pass a zero contribution.
func accumulate(m Matrix, t int, contribution float64, factors []float64) {
	for ii, path := range m {
		path[t] = (path[t-1] + contribution) * factors[ii]
	}
}
