// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultHealthTimeout bounds the health probe.
const DefaultHealthTimeout = 5 * time.Second

// modelList is the body of GET /models on OpenAI-compatible APIs.
type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func newModelsRequest(ctx context.Context, apiKey string, timeout time.Duration) *resty.Request {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	req := client.R().SetContext(ctx)
	if apiKey != "" {
		req.SetAuthToken(apiKey)
	}
	return req
}

func modelsURL(baseURL string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimSuffix(baseURL, "/") + "/models"
}

// CheckHealth reports whether apiKey is set and GET <baseURL>/models
// answers 200 within timeout. A missing key is unhealthy without a request.
func CheckHealth(ctx context.Context, baseURL, apiKey string, timeout time.Duration) bool {
	if strings.TrimSpace(apiKey) == "" {
		return false
	}
	status, err := ProbeModels(ctx, baseURL, apiKey, timeout)
	return err == nil && status == http.StatusOK
}

// ProbeModels sends GET <baseURL>/models and returns the HTTP status.
// The bearer header is omitted when apiKey is empty. err is set only when
// no response arrived.
func ProbeModels(ctx context.Context, baseURL, apiKey string, timeout time.Duration) (int, error) {
	resp, err := newModelsRequest(ctx, apiKey, timeout).Get(modelsURL(baseURL))
	if err != nil {
		return 0, fmt.Errorf("probe models: %w", err)
	}
	return resp.StatusCode(), nil
}

// ListModels returns the model IDs advertised by the API.
func ListModels(ctx context.Context, baseURL, apiKey string, timeout time.Duration) ([]string, error) {
	var result modelList
	resp, err := newModelsRequest(ctx, apiKey, timeout).
		SetResult(&result).
		Get(modelsURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("list models error (status %d): %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	models := make([]string, 0, len(result.Data))
	for _, m := range result.Data {
		models = append(models, m.ID)
	}
	return models, nil
}
