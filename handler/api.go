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
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/pv-montecarlo/common"
	"github.com/penny-vault/pv-montecarlo/input"
	"github.com/penny-vault/pv-montecarlo/simulation"
)

type PingResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"API is alive"`
	Version string `json:"version" example:"0.3.0-dev"`
	Time    string `json:"time" example:"2021-06-19T08:09:10.115924-05:00"`
}

// ScenarioInfo describes one entry of the scenario drop-down
type ScenarioInfo struct {
	Kind     simulation.Kind `json:"kind"`
	Name     string          `json:"name"`
	Defaults input.Params    `json:"defaults"`
}

func Ping(c *fiber.Ctx) error {
	response := PingResponse{
		Status:  "success",
		Message: "API is alive",
		Version: common.CurrentVersion.String(),
	}

	now, err := time.Now().MarshalText()
	if err != nil {
		log.Error().Err(err).Msg("error while getting time in ping")
		response.Status = "error"
		response.Message = err.Error()
	}
	response.Time = string(now)

	return c.JSON(response)
}

// ListScenarios returns every scenario kind with its display name and the
// values the form starts with
func ListScenarios(c *fiber.Ctx) error {
	kinds := simulation.Kinds()
	scenarios := make([]ScenarioInfo, 0, len(kinds))
	for _, kind := range kinds {
		scenarios = append(scenarios, ScenarioInfo{
			Kind:     kind,
			Name:     kind.DisplayName(),
			Defaults: input.Defaults(kind),
		})
	}
	return c.JSON(scenarios)
}
