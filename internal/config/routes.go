package config

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
)

// Routes is the optional routes file: redirects and titles layered on top of
// the routing map built in code.
//
//	{
//	  "redirects": {"/index": "/"},
//	  "titles": {"/items": "Items"}
//	}
type Routes struct {
	Redirects map[string]string `json:"redirects" validate:"dive,keys,required,startswith=/,endkeys,required"`
	Titles    map[string]string `json:"titles" validate:"dive,keys,required,endkeys,required"`
}

// LoadRoutes reads and validates the routes file at path.
func LoadRoutes(fs afero.Fs, path string) (*Routes, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read routes file: %w", err)
	}

	var routes Routes
	if err := json.Unmarshal(data, &routes); err != nil {
		return nil, fmt.Errorf("parse routes file %s: %w", path, err)
	}
	if err := Validate(&routes); err != nil {
		return nil, fmt.Errorf("routes file %s: %w", path, err)
	}
	return &routes, nil
}
