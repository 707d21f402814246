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

package generate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	kjsonschema "github.com/kaptinlin/jsonschema"

	"github.com/kraklabs/repolift/pkg/llm"
)

// SchemaName identifies the output schema in model requests.
const SchemaName = "content_suggestions"

// SuggestionRecord is the validated model output.
type SuggestionRecord struct {
	NewTitle     string   `json:"new_title" validate:"required,maxwords=10" jsonschema:"description=A short attention-grabbing title (max 10 words)."`
	ShortSummary string   `json:"short_summary" validate:"required,maxwords=80" jsonschema:"description=A compelling one-paragraph summary (max 80 words)."`
	ReadmeEdits  []string `json:"readme_edits" validate:"min=3,max=5,dive,required" jsonschema:"minItems=3,maxItems=5,minLength=1,description=A list of 3-5 concrete actionable suggestions."`
}

var (
	schemaOnce     sync.Once
	outputSchema   *jsonschema.Schema
	compiledSchema *kjsonschema.Schema
	schemaErr      error

	validateOnce sync.Once
	validate     *validator.Validate
)

// OutputSchema returns the JSON schema of SuggestionRecord.
func OutputSchema() *jsonschema.Schema {
	loadSchema()
	return outputSchema
}

// LLMSchema returns the output schema in the form providers accept.
func LLMSchema() (*llm.Schema, error) {
	if err := loadSchema(); err != nil {
		return nil, err
	}
	return llm.NewSchema(SchemaName, outputSchema.Description, outputSchema)
}

func loadSchema() error {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{
			Anonymous:      true,
			DoNotReference: true,
			ExpandedStruct: true,
		}
		outputSchema = r.Reflect(&SuggestionRecord{})
		outputSchema.Description = "Structured repository content suggestions."

		raw, err := json.Marshal(outputSchema)
		if err != nil {
			schemaErr = fmt.Errorf("marshal output schema: %w", err)
			return
		}
		compiledSchema, err = kjsonschema.NewCompiler().Compile(raw)
		if err != nil {
			schemaErr = fmt.Errorf("compile output schema: %w", err)
		}
	})
	return schemaErr
}

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("maxwords", func(fl validator.FieldLevel) bool {
			var limit int
			if _, err := fmt.Sscanf(fl.Param(), "%d", &limit); err != nil {
				return false
			}
			return len(strings.Fields(fl.Field().String())) <= limit
		})
	})
	return validate
}

// DecodeRecord parses raw model output into a SuggestionRecord. The output
// must satisfy the JSON schema and the struct constraints; no partially
// valid record is ever returned.
func DecodeRecord(raw string) (*SuggestionRecord, error) {
	if err := loadSchema(); err != nil {
		return nil, err
	}
	body := []byte(llm.ExtractJSON(raw))

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &SchemaValidationError{Raw: raw, Err: fmt.Errorf("decode: %w", err)}
	}
	if problems := validateRaw(doc); len(problems) > 0 {
		return nil, &SchemaValidationError{Raw: raw, Problems: problems}
	}

	var rec SuggestionRecord
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return nil, &SchemaValidationError{Raw: raw, Err: fmt.Errorf("decode: %w", err)}
	}
	if err := structValidator().Struct(&rec); err != nil {
		var problems []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			}
		}
		return nil, &SchemaValidationError{Raw: raw, Problems: problems, Err: err}
	}
	return &rec, nil
}

// validateRaw checks a decoded JSON document against the compiled output
// schema and returns the violations in a stable order.
func validateRaw(doc any) []string {
	result := compiledSchema.Validate(doc)
	if result.Valid {
		return nil
	}
	problems := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		problems = append(problems, e.Error())
	}
	sort.Strings(problems)
	if len(problems) == 0 {
		problems = append(problems, "does not match the output schema")
	}
	return problems
}
