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

package handler

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/penny-vault/pv-montecarlo/common"
	"github.com/penny-vault/pv-montecarlo/input"
	"github.com/penny-vault/pv-montecarlo/observability/opentelemetry"
	"github.com/penny-vault/pv-montecarlo/simulation"
	"github.com/penny-vault/pv-montecarlo/summary"
)

// SimulateRequest is the body of POST /v1/simulate
type SimulateRequest struct {
	input.Params
	IncludePaths bool `json:"include_paths"`
}

type SimulateResponse struct {
	Seed   uint64            `json:"seed"`
	Report *summary.Report   `json:"report"`
	Paths  simulation.Matrix `json:"paths,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Simulate runs one Monte Carlo projection. Requests that carry a seed are
// deterministic and their responses are served from the result cache.
func Simulate(c *fiber.Ctx) error {
	_, span := otel.Tracer(opentelemetry.Name).Start(c.UserContext(), "handler.Simulate")
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)

	body := SimulateRequest{}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		log.Warn().Err(err).Msg("could not decode simulate request")
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request body")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Status:  "error",
			Message: "Request body must be a valid JSON object.",
		})
	}

	var cacheKey string
	if body.Seed != nil {
		canonical, err := json.Marshal(body)
		if err == nil {
			cacheKey = common.CacheKey([]byte("simulate"), canonical)
			if cached, err := common.CacheGet(cacheKey); err == nil {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.Send(cached)
			}
		}
	}

	req, err := body.Request()
	if err == nil {
		err = input.LimitsFromConfig().Check(req)
	}
	if err != nil {
		return simulationError(c, span, err)
	}

	seed := simulation.RandomSeed()
	if body.Seed != nil {
		seed = *body.Seed
	}
	span.SetAttributes(
		attribute.String("simulation.kind", string(req.Kind())),
		attribute.Int("simulation.years", req.Years),
		attribute.Int("simulation.simulations", req.Simulations),
	)

	m, err := simulation.Simulate(req, simulation.NewStream(seed))
	if err != nil {
		return simulationError(c, span, err)
	}

	resp := SimulateResponse{
		Seed:   seed,
		Report: summary.New(req, m),
	}
	if body.IncludePaths {
		resp.Paths = m
	}

	out, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Object("Request", req).Msg("could not encode simulation response")
		return simulationError(c, span, simulation.ErrInternal)
	}

	if cacheKey != "" {
		if err := common.CacheSet(cacheKey, out); err != nil {
			log.Warn().Err(err).Msg("could not cache simulation response")
		}
	}

	log.Info().Object("Request", req).Uint64("Seed", seed).Msg("simulation complete")
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(out)
}

// StatusCode maps a simulation error to an HTTP status
func StatusCode(err error) int {
	switch {
	case errors.Is(err, simulation.ErrInvalidParameter):
		return fiber.StatusBadRequest
	case errors.Is(err, simulation.ErrCovarianceNotPSD):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func simulationError(c *fiber.Ctx, span trace.Span, err error) error {
	status := StatusCode(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, "simulation failed")

	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Msg("simulation failed")
	} else {
		log.Warn().Err(err).Int("StatusCode", status).Msg("rejected simulation request")
	}

	return c.Status(status).JSON(ErrorResponse{
		Status:  "error",
		Field:   input.Field(err),
		Message: input.Message(err),
	})
}
