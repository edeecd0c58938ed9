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
	"crypto/rand"
	"encoding/binary"
	"time"

	xrand "golang.org/x/exp/rand"
)

// Stream is a seeded pseudo random number stream owned by a single
// simulation. A Stream is not safe for concurrent use; give every concurrent
// request its own.
type Stream struct {
	seed uint64
	src  xrand.Source
}

// NewStream returns a stream that always produces the same draws for the same
// seed
func NewStream(seed uint64) *Stream {
	return &Stream{
		seed: seed,
		src:  xrand.NewSource(seed),
	}
}

// RandomSeed returns a seed read from the operating system's entropy pool. If
// the pool cannot be read the current time is used instead.
func RandomSeed() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// Seed returns the seed the stream was created with
func (s *Stream) Seed() uint64 {
	return s.seed
}
