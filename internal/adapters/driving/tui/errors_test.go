package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingConsultationService.Error(), ErrMissingKnowledgeService.Error())
}

func TestErrMissingConsultationService_Message(t *testing.T) {
	assert.Contains(t, ErrMissingConsultationService.Error(), "consultation service")
}

func TestErrMissingKnowledgeService_Message(t *testing.T) {
	assert.Contains(t, ErrMissingKnowledgeService.Error(), "knowledge service")
}
