package grid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/mathwiz/internal/fact"
)

// SchemaVersion is the version written by EncodeCells.
const SchemaVersion = 1

// document is the persisted form of a grid's cells.
//
// Absent cell fields decode to their documented defaults: counters and
// times 0, flags false, lastAttemptTimeClassification unset and
// masteryAchievedAt unset. Cells missing from the list are zeroed.
type document struct {
	Version int        `json:"version"`
	Cells   []cellJSON `json:"cells"`
}

type cellJSON struct {
	Multiplicand       int        `json:"multiplicand"`
	Multiplier         int        `json:"multiplier"`
	ConsecutiveCorrect int        `json:"consecutiveCorrect"`
	LastAttemptCorrect bool       `json:"lastAttemptCorrect"`
	Attempts           int        `json:"attempts"`
	IsLocked           bool       `json:"isLocked"`
	AverageTimeSeconds float64    `json:"averageTimeSeconds"`
	TotalTimeSpent     float64    `json:"totalTimeSpent"`
	LastTimeClass      TimeClass  `json:"lastAttemptTimeClassification,omitempty"`
	MasteredAt         *time.Time `json:"masteryAchievedAt,omitempty"`
}

var cellProperties = map[string]any{
	"multiplicand":       map[string]any{"type": "integer", "minimum": fact.Min, "maximum": fact.Max},
	"multiplier":         map[string]any{"type": "integer", "minimum": fact.Min, "maximum": fact.Max},
	"consecutiveCorrect": map[string]any{"type": "integer", "minimum": 0},
	"lastAttemptCorrect": map[string]any{"type": "boolean"},
	"attempts":           map[string]any{"type": "integer", "minimum": 0},
	"isLocked":           map[string]any{"type": "boolean"},
	"averageTimeSeconds": map[string]any{"type": "number", "minimum": 0},
	"totalTimeSpent":     map[string]any{"type": "number", "minimum": 0},
	"lastAttemptTimeClassification": map[string]any{
		"type": "string",
		"enum": []any{"fast", "medium", "slow"},
	},
	"masteryAchievedAt": map[string]any{"type": "string"},
}

var cellSchema = map[string]any{
	"type":       "object",
	"properties": cellProperties,
	"required":   []any{"multiplicand", "multiplier"},
}

var documentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"version": map[string]any{"type": "integer", "minimum": 1},
		"cells":   map[string]any{"type": "array", "items": cellSchema},
	},
	"required": []any{"version", "cells"},
}

// legacySchema matches the unversioned 12×12 array of arrays written by the
// first version of the app.
var legacySchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type":  "array",
		"items": cellSchema,
	},
}

var (
	compileOnce sync.Once
	compiledDoc *jsonschema.Schema
	compiledOld *jsonschema.Schema
	compileErr  error
)

func compileSchemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledDoc, compileErr = compile("schema://grid-cells.json", documentSchema)
		if compileErr != nil {
			return
		}
		compiledOld, compileErr = compile("schema://grid-cells-legacy.json", legacySchema)
	})
	return compiledDoc, compiledOld, compileErr
}

func compile(url string, def map[string]any) (*jsonschema.Schema, error) {
	// The validator wants plain decoded JSON values, so round-trip the
	// definition through encoding/json.
	b, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var parsed any
	if err := json.Unmarshal(b, &parsed); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, parsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", url, err)
	}
	return s, nil
}

// EncodeCells serializes the grid's cells as a versioned document.
func EncodeCells(g *Grid) ([]byte, error) {
	doc := document{Version: SchemaVersion}
	for _, c := range g.Cells() {
		doc.Cells = append(doc.Cells, cellJSON{
			Multiplicand:       c.Multiplicand,
			Multiplier:         c.Multiplier,
			ConsecutiveCorrect: c.ConsecutiveCorrect,
			LastAttemptCorrect: c.LastAttemptCorrect,
			Attempts:           c.Attempts,
			IsLocked:           c.IsLocked,
			AverageTimeSeconds: c.AverageTimeSeconds,
			TotalTimeSpent:     c.TotalTimeSpent,
			LastTimeClass:      c.LastTimeClass,
			MasteredAt:         c.MasteredAt,
		})
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode grid cells: %w", err)
	}
	return b, nil
}

// DecodeCells parses a persisted cell document, validating it first.
// Both the versioned form and the legacy array-of-rows form are accepted.
func DecodeCells(raw []byte) ([Size][Size]Cell, error) {
	var cells [Size][Size]Cell
	for _, f := range fact.All() {
		row, col := f.Key()
		cells[row][col] = emptyCell(f)
	}

	docSchema, oldSchema, err := compileSchemas()
	if err != nil {
		return cells, fmt.Errorf("grid schema: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return cells, fmt.Errorf("decode grid cells: invalid JSON: %w", err)
	}

	var list []cellJSON
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		if err := oldSchema.Validate(parsed); err != nil {
			return cells, fmt.Errorf("decode legacy grid cells: %w", err)
		}
		var rows [][]cellJSON
		if err := json.Unmarshal(raw, &rows); err != nil {
			return cells, fmt.Errorf("decode legacy grid cells: %w", err)
		}
		for _, r := range rows {
			list = append(list, r...)
		}
	} else {
		if err := docSchema.Validate(parsed); err != nil {
			return cells, fmt.Errorf("decode grid cells: %w", err)
		}
		var doc document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return cells, fmt.Errorf("decode grid cells: %w", err)
		}
		if doc.Version > SchemaVersion {
			return cells, fmt.Errorf("decode grid cells: unsupported version %d (max %d)", doc.Version, SchemaVersion)
		}
		list = doc.Cells
	}

	for _, cj := range list {
		c := Cell{
			Multiplicand:       cj.Multiplicand,
			Multiplier:         cj.Multiplier,
			ConsecutiveCorrect: cj.ConsecutiveCorrect,
			LastAttemptCorrect: cj.LastAttemptCorrect,
			Attempts:           cj.Attempts,
			IsLocked:           cj.IsLocked,
			AverageTimeSeconds: cj.AverageTimeSeconds,
			TotalTimeSpent:     cj.TotalTimeSpent,
			LastTimeClass:      cj.LastTimeClass,
			MasteredAt:         cj.MasteredAt,
		}
		if c.ConsecutiveCorrect > c.Attempts {
			c.ConsecutiveCorrect = c.Attempts
		}
		row, col := c.Fact().Key()
		cells[row][col] = c
	}
	return cells, nil
}
