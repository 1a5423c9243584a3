package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for diagnosa resources.
	uriScheme = "diagnosa://"

	rulesURI = uriScheme + "rules"
)

// ruleSummary is the listing entry for a rule.
type ruleSummary struct {
	ID         string   `json:"id"`
	Conditions []string `json:"conditions"`
	Diagnosis  string   `json:"diagnosis"`
	CF         float64  `json:"cf"`
	Status     string   `json:"status"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         rulesURI,
		Name:        "rules",
		Description: "All rules in the loaded catalogue, in definition order",
		MIMEType:    "application/json",
	}, s.handleRulesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: rulesURI + "/{ruleId}",
		Name:        "rule",
		Description: "A single rule with its recommendation and metadata",
		MIMEType:    "application/json",
	}, s.handleRuleResource)
}

// handleRulesResource lists every loaded rule.
func (s *Server) handleRulesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	rules := s.ports.Knowledge.AllRules()

	infos := make([]ruleSummary, len(rules))
	for i := range rules {
		infos[i] = ruleSummary{
			ID:         rules[i].ID,
			Conditions: rules[i].Antecedents,
			Diagnosis:  rules[i].Consequent.Diagnosis,
			CF:         rules[i].CF,
			Status:     rules[i].Status.String(),
		}
	}

	return jsonResource(req.Params.URI, infos)
}

// handleRuleResource returns one rule.
func (s *Server) handleRuleResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	ruleID := extractRuleID(req.Params.URI)
	if ruleID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rule, err := s.ports.Knowledge.Get(ruleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting rule: %w", err)
	}

	return jsonResource(req.Params.URI, rule)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRuleID extracts the rule ID from a URI like diagnosa://rules/{ruleId}.
func extractRuleID(uri string) string {
	const prefix = rulesURI + "/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
