// Package plan applies a declarative list of architectural edit operations
// to a copy of a graph and reports the resulting structural diff. Plan files
// are user-authored and validated, never trusted.
package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"prism/internal/errors"
	"prism/internal/graph"
)

// Operation kinds, carried in the "op" discriminator field.
const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpMove   = "move"
)

// Operation is one declarative edit. The fields used depend on Op:
// add uses Name/Layer/DependsOn, remove uses ID, move uses ID/ToLayer.
type Operation struct {
	Op        string      `json:"op" yaml:"op"`
	Name      string      `json:"name,omitempty" yaml:"name,omitempty"`
	Layer     graph.Layer `json:"layer,omitempty" yaml:"layer,omitempty"`
	DependsOn []string    `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	ID        string      `json:"id,omitempty" yaml:"id,omitempty"`
	ToLayer   graph.Layer `json:"to_layer,omitempty" yaml:"to_layer,omitempty"`
}

// Plan is a named list of operations describing a hypothetical change.
type Plan struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Operations  []Operation `json:"operations" yaml:"operations"`
}

// ValidationError reports a rejected plan operation. The whole plan fails
// atomically: the caller fixes the plan and resubmits.
type ValidationError struct {
	OpIndex int              `json:"opIndex"`
	Op      string           `json:"op"`
	NodeID  string           `json:"nodeId,omitempty"`
	Message string           `json:"message"`
	Code    errors.ErrorCode `json:"code"`
}

func (e *ValidationError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("[%s] operation %d (%s): %s (id: %s)",
			e.Code, e.OpIndex, e.Op, e.Message, e.NodeID)
	}
	return fmt.Sprintf("[%s] operation %d (%s): %s", e.Code, e.OpIndex, e.Op, e.Message)
}

func validationErr(index int, op Operation, nodeID, message string) *ValidationError {
	return &ValidationError{
		OpIndex: index,
		Op:      op.Op,
		NodeID:  nodeID,
		Message: message,
		Code:    errors.Validation,
	}
}

// Load reads a plan file. JSON and YAML are both accepted, chosen by file
// extension (.yaml/.yml for YAML, everything else JSON).
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Plan
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, errors.NewPrismError(errors.Validation,
			fmt.Sprintf("parse plan file %s", path), err)
	}

	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &p, nil
}
