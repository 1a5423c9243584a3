package reporters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/diagnosa-cli/internal/core/certainty"
)

const defaultWidth = 60

// leadingKeys are recommendation fields shown first, in this order.
var leadingKeys = []string{"pupuk", "dosis", "metode", "timing", "severity"}

// recommendationKeys orders recommendation fields: well-known fields first,
// then the rest alphabetically.
func recommendationKeys(rec map[string]any) []string {
	keys := make([]string, 0, len(rec))
	for _, k := range leadingKeys {
		if _, ok := rec[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range rec {
		if !contains(leadingKeys, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// HumanizeToken turns "daun_menguning" into "Daun menguning".
func HumanizeToken(token string) string {
	s := strings.ReplaceAll(token, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatCF renders a CF as a percentage with its label.
func formatCF(cf float64) string {
	return fmt.Sprintf("%s (%s)", certainty.Percent(cf), certainty.MustInterpret(cf))
}

func stringValue(rec map[string]any, key string) string {
	v, ok := rec[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
