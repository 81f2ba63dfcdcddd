package service

import (
	"strings"

	"contactcenter_backend/internal/dialer/repository"
)

// applyQuota evaluates the campaign's quota rules against the contact in
// stored order. The first rule whose predicate holds has its counter
// incremented; later rules are not considered even if they would also match,
// so no disposition ever increments more than one counter.
// Returns the updated rule list and whether any rule matched; no match is a
// silent no-op.
func applyQuota(rules []repository.QuotaRule, contact repository.Contact) ([]repository.QuotaRule, bool) {
	for i := range rules {
		if ruleMatches(rules[i], contact.FieldValue(rules[i].ContactField)) {
			rules[i].CurrentCount++
			return rules, true
		}
	}
	return rules, false
}

func ruleMatches(rule repository.QuotaRule, value string) bool {
	switch rule.Operator {
	case repository.OperatorEquals:
		return value == rule.Value
	case repository.OperatorStartsWith:
		return strings.HasPrefix(value, rule.Value)
	default:
		return false
	}
}
