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

package common

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

var ErrCacheMiss = errors.New("cache miss")

var cache *lru.Cache

// SetupCache creates the process wide response cache holding at most size
// entries. A size of zero or less disables caching.
func SetupCache(size int) error {
	if size <= 0 {
		cache = nil
		log.Info().Msg("response cache disabled")
		return nil
	}

	var err error
	cache, err = lru.New(size)
	if err != nil {
		return err
	}

	log.Info().Int("Size", size).Msg("response cache initialized")
	return nil
}

// CacheKey hashes the given parts into a fixed length key
func CacheKey(parts ...[]byte) string {
	h := blake3.New()
	for _, part := range parts {
		h.Write(part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CacheSet stores an lz4 compressed copy of data under key
func CacheSet(key string, data []byte) error {
	if cache == nil {
		return nil
	}

	compressed, err := Compress(data)
	if err != nil {
		return err
	}
	cache.Add(key, compressed)
	return nil
}

// CacheGet returns the data stored under key or ErrCacheMiss
func CacheGet(key string) ([]byte, error) {
	if cache == nil {
		return nil, ErrCacheMiss
	}

	val, ok := cache.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return Decompress(val.([]byte))
}

func Compress(in []byte) ([]byte, error) {
	w := &bytes.Buffer{}
	zw := lz4.NewWriter(w)
	if _, err := zw.Write(in); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func Decompress(in []byte) ([]byte, error) {
	w := &bytes.Buffer{}
	if _, err := io.Copy(w, lz4.NewReader(bytes.NewReader(in))); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
