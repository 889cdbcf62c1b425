package main

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidServeMode = errors.New("invalid serve mode")

// ServeMode selects which route groups the server registers.
type ServeMode string

const (
	// ServeModeMonolith serves pages and the API from one process.
	ServeModeMonolith ServeMode = "monolith"
	// ServeModeWeb serves only the dashboard pages.
	ServeModeWeb ServeMode = "web"
	// ServeModeAPI serves only the bundle and tracking API.
	ServeModeAPI ServeMode = "api"
)

func ParseServeMode(rawInput string) (ServeMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(rawInput))
	if normalized == "" {
		return ServeModeMonolith, nil
	}

	mode := ServeMode(normalized)
	switch mode {
	case ServeModeMonolith, ServeModeWeb, ServeModeAPI:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidServeMode, rawInput)
	}
}

func (mode ServeMode) servesPages() bool {
	return mode == ServeModeMonolith || mode == ServeModeWeb
}

func (mode ServeMode) servesAPI() bool {
	return mode == ServeModeMonolith || mode == ServeModeAPI
}
