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

package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestIDKey is the fiber.Ctx local holding the request id
const RequestIDKey = "requestid"

// NewLogger creates a middleware handler that tags each request with an id
// and logs it once it has been processed
func NewLogger() fiber.Handler {
	var (
		once       sync.Once
		errHandler fiber.ErrorHandler
	)

	return func(c *fiber.Ctx) error {
		once.Do(func() {
			errHandler = c.App().Config().ErrorHandler
		})

		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(fiber.HeaderXRequestID, id)
		c.Locals(RequestIDKey, id)

		start := time.Now()

		// errors are rendered here so the logged status is the one sent
		if chainErr := c.Next(); chainErr != nil {
			if err := errHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		code := c.Response().StatusCode()

		var event *zerolog.Event
		var msg string
		switch {
		case code >= fiber.StatusOK && code < fiber.StatusMultipleChoices:
			event, msg = log.Info(), "processed HTTP request"
		case code >= fiber.StatusMultipleChoices && code < fiber.StatusBadRequest:
			event, msg = log.Info(), "forward HTTP request"
		case code >= fiber.StatusBadRequest && code < fiber.StatusInternalServerError:
			event, msg = log.Warn(), "bad HTTP request"
		default:
			event, msg = log.Error(), "internal server error"
		}

		event.
			Str("RequestID", id).
			Int("StatusCode", code).
			Dur("Latency", time.Since(start).Round(time.Millisecond)).
			Str("IP", c.IP()).
			Str("Method", c.Method()).
			Str("Path", c.Path()).
			Str("Route", c.Route().Path).
			Str("UserAgent", c.Get(fiber.HeaderUserAgent)).
			Int("NumBytesReceived", len(c.Request().Body())).
			Int("NumBytesSent", len(c.Response().Body())).
			Msg(msg)

		return nil
	}
}
