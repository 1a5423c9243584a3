package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/diagnosa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/diagnosa-cli/internal/logger"
)

// Ensure ConsultationService implements the interface.
var _ driving.ConsultationService = (*ConsultationService)(nil)

// batchLimit bounds concurrent consultations in ConsultBatch.
const batchLimit = 8

// ruleSource provides the current rule set.
type ruleSource interface {
	RuleSet() *RuleSet
}

// ConsultationService runs consultations against the current rule set.
type ConsultationService struct {
	rules    ruleSource
	settings driving.SettingsService
	log      driven.ConsultationLog
	now      func() time.Time
}

// NewConsultationService creates a consultation service.
// settings and log may be nil: defaults are used and nothing is logged.
func NewConsultationService(
	rules *KnowledgeService,
	settings driving.SettingsService,
	log driven.ConsultationLog,
) *ConsultationService {
	s := &ConsultationService{
		settings: settings,
		log:      log,
		now:      time.Now,
	}
	if rules != nil {
		s.rules = rules
	}
	return s
}

func (s *ConsultationService) engineSettings() domain.EngineSettings {
	if s.settings == nil {
		return domain.DefaultEngineSettings()
	}
	settings, err := s.settings.Get()
	if err != nil {
		logger.Warn("Reading settings, using defaults: %v", err)
		return domain.DefaultEngineSettings()
	}
	return settings.Engine
}

func (s *ConsultationService) ruleSet() *RuleSet {
	if s.rules == nil {
		return emptyRuleSet()
	}
	return s.rules.RuleSet()
}

// Consult forward-chains from the given facts to a fixpoint.
func (s *ConsultationService) Consult(ctx context.Context, input domain.ConsultationInput) (*domain.ConsultationResult, error) {
	return s.consult(ctx, input, s.engineSettings())
}

func (s *ConsultationService) consult(
	ctx context.Context,
	input domain.ConsultationInput,
	settings domain.EngineSettings,
) (*domain.ConsultationResult, error) {
	logger.Section("Consultation")
	start := time.Now()

	engine := NewEngine(s.ruleSet(), settings)
	result, err := engine.Run(input)
	if err != nil {
		metricConsultations.WithLabelValues("error").Inc()
		return nil, err
	}

	metricConsultationDuration.Observe(time.Since(start).Seconds())
	metricConsultations.WithLabelValues(string(result.State)).Inc()
	metricIterations.Observe(float64(result.TotalIterations))
	for _, id := range result.UsedRules {
		metricRulesFired.WithLabelValues(id).Inc()
	}

	result.ID = uuid.NewString()
	result.Timestamp = s.now().UTC()
	logger.Debug("Consultation %s: %d conclusions after %d iterations (%s)",
		result.ID, len(result.AllConclusions), result.TotalIterations, result.State)

	if s.log != nil {
		if err := s.log.Record(ctx, domain.NewConsultationRecord(result)); err != nil {
			logger.Warn("Recording consultation %s: %v", result.ID, err)
		}
	}
	return result, nil
}

// ConsultBatch runs several independent consultations concurrently.
// Each consultation gets its own engine. The first error cancels the rest.
func (s *ConsultationService) ConsultBatch(
	ctx context.Context,
	inputs []domain.ConsultationInput,
) ([]*domain.ConsultationResult, error) {
	settings := s.engineSettings()
	results := make([]*domain.ConsultationResult, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchLimit)
	for i, input := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := s.consult(ctx, input, settings)
			if err != nil {
				return fmt.Errorf("consultation %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// VerifyGoal reports whether a diagnosis is provable from the facts.
//
// Every rule, whatever its status, whose diagnosis equals the goal
// (ignoring case) is a candidate. The goal is provable when at least one
// candidate has all its antecedents among the facts.
func (s *ConsultationService) VerifyGoal(_ context.Context, goal string, facts []string) (*domain.GoalResult, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, fmt.Errorf("goal is required: %w", domain.ErrInvalidInput)
	}
	result := verifyGoal(s.ruleSet(), goal, facts)
	metricGoalChecks.WithLabelValues(strconv.FormatBool(result.Provable)).Inc()
	return result, nil
}

func verifyGoal(rs *RuleSet, goal string, facts []string) *domain.GoalResult {
	known := make(map[string]struct{}, len(facts))
	for _, f := range facts {
		known[strings.TrimSpace(f)] = struct{}{}
	}

	result := &domain.GoalResult{Goal: goal, Candidates: []domain.GoalCandidate{}}
	for i := range rs.rules {
		rule := &rs.rules[i]
		if !strings.EqualFold(rule.Consequent.Diagnosis, goal) {
			continue
		}
		c := domain.GoalCandidate{
			RuleID:         rule.ID,
			Required:       append([]string(nil), rule.Antecedents...),
			Satisfied:      []string{},
			Missing:        []string{},
			CF:             rule.CF,
			Recommendation: rule.Consequent.Recommendation,
		}
		for _, a := range rule.Antecedents {
			if _, ok := known[a]; ok {
				c.Satisfied = append(c.Satisfied, a)
			} else {
				c.Missing = append(c.Missing, a)
			}
		}
		c.CanProve = len(c.Missing) == 0
		result.Provable = result.Provable || c.CanProve
		result.Candidates = append(result.Candidates, c)
	}

	switch {
	case len(result.Candidates) == 0:
		result.Message = fmt.Sprintf("no rule concludes %q", goal)
	case result.Provable:
		result.Message = "goal is provable from the given facts"
	default:
		result.Message = "goal cannot be proven from the given facts"
	}
	return result
}
