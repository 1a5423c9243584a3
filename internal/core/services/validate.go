package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/diagnosa-cli/internal/core/domain"
)

// ruleValidator checks the struct tags on domain.Rule.
var ruleValidator = newRuleValidator()

func newRuleValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// token: a non-blank identifier such as "daun_menguning".
	_ = v.RegisterValidation("token", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// validateRule returns a *domain.RuleValidationError listing every problem
// with the rule, or nil.
func validateRule(rule *domain.Rule) error {
	var reasons []string

	if err := ruleValidator.Struct(rule); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("validating rule %q: %w", rule.ID, err)
		}
		for _, fe := range verrs {
			reasons = append(reasons, describeFieldError(fe))
		}
	}
	if math.IsNaN(rule.CF) && !containsPrefix(reasons, "cf ") {
		reasons = append(reasons, "cf must be a number between 0 and 1")
	}
	if rule.Status != "" && rule.Status != domain.RuleStatusUnknown && !rule.Status.IsValid() {
		reasons = append(reasons, fmt.Sprintf("status %q is not recognised", rule.Status))
	}
	if dup := duplicateToken(rule.Antecedents); dup != "" {
		reasons = append(reasons, fmt.Sprintf("antecedent %q is listed twice", dup))
	}

	if len(reasons) == 0 {
		return nil
	}
	return &domain.RuleValidationError{RuleID: rule.ID, Reasons: reasons}
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Namespace() {
	case "Rule.Consequent.Diagnosis":
		field = "diagnosis"
	case "Rule.Antecedents":
		field = "antecedents"
	}
	if strings.HasPrefix(fe.Namespace(), "Rule.Antecedents[") {
		return fmt.Sprintf("antecedent %s must not be blank", strings.TrimPrefix(fe.Field(), "Antecedents"))
	}

	switch fe.Tag() {
	case "required", "token":
		return field + " is required"
	case "min":
		return field + " must not be empty"
	case "gte", "lte":
		return field + " must be between 0 and 1"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func duplicateToken(tokens []string) string {
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			return t
		}
		seen[t] = struct{}{}
	}
	return ""
}

func containsPrefix(list []string, prefix string) bool {
	for _, s := range list {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
