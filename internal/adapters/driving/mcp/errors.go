// Package mcp provides an MCP (Model Context Protocol) server adapter for diagnosa.
// It lets AI assistants run consultations, verify goals and read the rule catalogue.
package mcp

import "errors"

// ErrMissingConsultationService is returned when the consultation service is not provided.
var ErrMissingConsultationService = errors.New("mcp: consultation service is required")

// ErrMissingKnowledgeService is returned when the knowledge service is not provided.
var ErrMissingKnowledgeService = errors.New("mcp: knowledge service is required")
