package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleRulesResource(t *testing.T) {
	server := newTestServer(t, &Ports{
		Consultation: &mockConsultationService{},
		Knowledge:    &mockKnowledgeService{rules: testRules()},
	})

	result, err := server.handleRulesResource(context.Background(), readRequest("diagnosa://rules"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var rules []ruleSummary
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &rules))
	require.Len(t, rules, 2)
	assert.Equal(t, "R001", rules[0].ID)
	assert.Equal(t, "defisiensi_nitrogen", rules[0].Diagnosis)
	assert.Equal(t, "deprecated", rules[1].Status)
}

func TestServer_handleRulesResource_Empty(t *testing.T) {
	server := newTestServer(t, &Ports{
		Consultation: &mockConsultationService{},
		Knowledge:    &mockKnowledgeService{},
	})

	result, err := server.handleRulesResource(context.Background(), readRequest("diagnosa://rules"))
	require.NoError(t, err)
	assert.Equal(t, "[]", result.Contents[0].Text)
}

func TestServer_handleRuleResource(t *testing.T) {
	ctx := context.Background()
	knowledge := &mockKnowledgeService{rules: testRules()}
	server := newTestServer(t, &Ports{Consultation: &mockConsultationService{}, Knowledge: knowledge})

	t.Run("returns rule", func(t *testing.T) {
		result, err := server.handleRuleResource(ctx, readRequest("diagnosa://rules/R001"))
		require.NoError(t, err)

		var rule domain.Rule
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &rule))
		assert.Equal(t, "R001", rule.ID)
		assert.Equal(t, "Urea", rule.Consequent.Recommendation["pupuk"])
	})

	t.Run("unknown rule is not found", func(t *testing.T) {
		_, err := server.handleRuleResource(ctx, readRequest("diagnosa://rules/R999"))
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "getting rule")
	})

	t.Run("malformed uri is not found", func(t *testing.T) {
		_, err := server.handleRuleResource(ctx, readRequest("diagnosa://rules/"))
		assert.Error(t, err)
	})

	t.Run("store failure", func(t *testing.T) {
		broken := newTestServer(t, &Ports{
			Consultation: &mockConsultationService{},
			Knowledge:    &mockKnowledgeService{err: errors.New("disk")},
		})
		_, err := broken.handleRuleResource(ctx, readRequest("diagnosa://rules/R001"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting rule")
	})
}

func TestExtractRuleID(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"diagnosa://rules/R001", "R001"},
		{"diagnosa://rules/", ""},
		{"diagnosa://rules", ""},
		{"diagnosa://rules/R001/extra", ""},
		{"other://rules/R001", ""},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, extractRuleID(tt.uri))
		})
	}
}
