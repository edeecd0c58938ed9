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
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/viper"
)

var levels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
	"panic":   zerolog.PanicLevel,
}

// SetupLogging configures the global logger from log.level, log.report_caller,
// log.output and log.pretty
func SetupLogging() {
	level, ok := levels[strings.ToLower(viper.GetString("log.level"))]
	if !ok {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	out, err := logOutput(viper.GetString("log.output"))
	if err != nil {
		log.Error().Err(err).Str("Output", viper.GetString("log.output")).Msg("could not open log output; using stderr")
		out = os.Stderr
	}
	if viper.GetBool("log.pretty") {
		out = zerolog.ConsoleWriter{Out: out}
	}
	log.Logger = log.Output(out)

	if viper.GetBool("log.report_caller") {
		log.Logger = log.With().Caller().Logger()
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	log.Debug().Str("Level", level.String()).Msg("logging configured")
}

// logOutput opens the named log destination. Files are appended to and stay
// open for the life of the process.
func logOutput(name string) (io.Writer, error) {
	switch name {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	}
}
