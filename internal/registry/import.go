// ABOUTME: YAML definition files for bulk-adding custom status types.
// ABOUTME: Each definition goes through Add, so ids and thresholds are validated the same way.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/harperreed/healthstatus/internal/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Definition is one status type entry in a definitions file.
type Definition struct {
	Name       string              `yaml:"name"`
	Thresholds models.ThresholdSet `yaml:"thresholds"`
}

// DefinitionFile is the top-level shape of a definitions file.
type DefinitionFile struct {
	StatusTypes []Definition `yaml:"status_types"`
}

// ImportResult reports what an import did.
type ImportResult struct {
	Added   []models.StatusType
	Skipped []string // ids that already existed
}

// ParseDefinitions decodes a YAML definitions file.
func ParseDefinitions(r io.Reader) ([]Definition, error) {
	var f DefinitionFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse definitions: %w", err)
	}
	return f.StatusTypes, nil
}

// Import adds every definition. Existing ids are skipped; any other failure stops the import.
func (r *Registry) Import(ctx context.Context, userID string, defs []Definition) (*ImportResult, error) {
	res := &ImportResult{}
	for i, d := range defs {
		st, err := r.Add(ctx, userID, d.Name, d.Thresholds)
		if err != nil {
			if errors.Is(err, ErrDuplicateID) {
				res.Skipped = append(res.Skipped, models.StatusIDFromName(d.Name))
				continue
			}
			return res, fmt.Errorf("definition %d (%q): %w", i+1, d.Name, err)
		}
		res.Added = append(res.Added, st)
	}
	r.logger.Info("status types imported",
		zap.String("user_id", userID),
		zap.Int("added", len(res.Added)),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}
