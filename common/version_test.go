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

package common_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pv-montecarlo/common"
)

var _ = Describe("Version", func() {
	It("should format release versions", func() {
		Expect(common.Version{Major: 1, Minor: 2, Patch: 3}.String()).To(Equal("1.2.3"))
	})

	It("should format pre-release versions", func() {
		Expect(common.Version{Major: 1, Minor: 2, Patch: 3, Suffix: "dev"}.String()).To(HavePrefix("1.2.3-dev"))
	})

	It("should name the program", func() {
		Expect(common.BuildVersionString()).To(HavePrefix("pvmc v" + common.CurrentVersion.String()))
	})
})
