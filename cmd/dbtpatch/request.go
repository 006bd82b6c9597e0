// Copyright 2026 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mkmik/multierror"

	"dbtpatch.io/pkg/props"
)

type columnChange struct {
	ColumnName     string  `json:"column_name"`
	NewDescription *string `json:"new_description"`
}

type modelUpdate struct {
	ModelName     string         `json:"model_name"`
	ColumnChanges []columnChange `json:"column_changes"`
	// ModelDescription is kept raw: an absent key means "leave the model
	// description alone" while an explicit null removes it.
	ModelDescription json.RawMessage `json:"model_description"`
}

func (m *modelUpdate) toUpdate() (props.ModelUpdate, error) {
	u := props.ModelUpdate{Model: m.ModelName}
	for _, c := range m.ColumnChanges {
		u.Columns = append(u.Columns, props.ColumnChange{Column: c.ColumnName, Description: c.NewDescription})
	}
	if m.ModelDescription != nil {
		u.HasDescription = true
		if err := json.Unmarshal(m.ModelDescription, &u.Description); err != nil {
			return u, fmt.Errorf("invalid JSON payload: model_description for %q: %w", m.ModelName, err)
		}
	}
	return u, nil
}

type updateRequest struct {
	PatchPath string        `json:"patch_path"`
	Models    []modelUpdate `json:"models"`
}

func (r *updateRequest) validate() error {
	var errs []error
	if r.PatchPath == "" {
		errs = append(errs, fmt.Errorf("patch_path is required"))
	}
	for i, m := range r.Models {
		if m.ModelName == "" {
			errs = append(errs, fmt.Errorf("models[%d]: model_name is required", i))
		}
	}
	if errs != nil {
		return multierror.Join(errs)
	}
	return nil
}

func (r *updateRequest) toUpdates() ([]props.ModelUpdate, error) {
	var updates []props.ModelUpdate
	for i := range r.Models {
		u, err := r.Models[i].toUpdate()
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, nil
}

type singleUpdateRequest struct {
	PatchPath string `json:"patch_path"`
	modelUpdate
}

func (r *singleUpdateRequest) validate() error {
	var errs []error
	if r.PatchPath == "" {
		errs = append(errs, fmt.Errorf("patch_path is required"))
	}
	if r.ModelName == "" {
		errs = append(errs, fmt.Errorf("model_name is required"))
	}
	if errs != nil {
		return multierror.Join(errs)
	}
	return nil
}

type relocateRequest struct {
	CurrentPatch  string `json:"current_patch"`
	ExpectedPatch string `json:"expected_patch"`
	ModelName     string `json:"model_name"`
}

func (r *relocateRequest) validate() error {
	var errs []error
	if r.CurrentPatch == "" {
		errs = append(errs, fmt.Errorf("current_patch is required"))
	}
	if r.ExpectedPatch == "" {
		errs = append(errs, fmt.Errorf("expected_patch is required"))
	}
	if r.ModelName == "" {
		errs = append(errs, fmt.Errorf("model_name is required"))
	}
	if errs != nil {
		return multierror.Join(errs)
	}
	return nil
}

type updateResponse struct {
	Results map[string][]string `json:"results"`
}

type singleUpdateResponse struct {
	UpdatedColumns []string `json:"updated_columns"`
}

type relocateResponse struct {
	Mutated bool `json:"mutated"`
}

// readRequest slurps the JSON request from --input or standard input and
// decodes it into v.
func (c *CommonFlags) readRequest(v interface{}) error {
	b, err := c.slurpRequest()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return nil
}

func (c *CommonFlags) slurpRequest() ([]byte, error) {
	if c.Input != "" {
		return os.ReadFile(c.Input)
	}
	if isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprintf(os.Stderr, "(reading request from standard input; hit ctrl-c if this is not what you wanted)\n")
	}
	return io.ReadAll(os.Stdin)
}

func respond(v interface{}) error {
	return json.NewEncoder(os.Stdout).Encode(v)
}
