package service

import (
	"testing"

	"contactcenter_backend/internal/dialer/repository"
)

func parisContact() repository.Contact {
	return repository.Contact{
		PhoneNumber: "+33612345678",
		FirstName:   "Marie",
		PostalCode:  "75000",
		CustomFields: map[string]string{
			"segment": "premium",
		},
	}
}

func TestApplyQuotaFirstMatchWins(t *testing.T) {
	rules := []repository.QuotaRule{
		{ContactField: "postalCode", Operator: repository.OperatorEquals, Value: "75000"},
		{ContactField: "postalCode", Operator: repository.OperatorEquals, Value: "75000"},
	}

	updated, matched := applyQuota(rules, parisContact())
	if !matched {
		t.Fatal("expected a rule to match")
	}
	if updated[0].CurrentCount != 1 {
		t.Fatalf("expected first rule counter to be 1, got %d", updated[0].CurrentCount)
	}
	if updated[1].CurrentCount != 0 {
		t.Fatalf("expected second rule counter to stay 0, got %d", updated[1].CurrentCount)
	}
}

func TestApplyQuotaStoredOrderDecides(t *testing.T) {
	rules := []repository.QuotaRule{
		{ContactField: "postalCode", Operator: repository.OperatorStartsWith, Value: "99"},
		{ContactField: "segment", Operator: repository.OperatorEquals, Value: "premium"},
		{ContactField: "postalCode", Operator: repository.OperatorStartsWith, Value: "75"},
	}

	updated, matched := applyQuota(rules, parisContact())
	if !matched {
		t.Fatal("expected a rule to match")
	}
	if updated[0].CurrentCount != 0 || updated[1].CurrentCount != 1 || updated[2].CurrentCount != 0 {
		t.Fatalf("expected only the second rule incremented, got %+v", updated)
	}
}

func TestApplyQuotaNoMatchIsNoOp(t *testing.T) {
	rules := []repository.QuotaRule{
		{ContactField: "postalCode", Operator: repository.OperatorEquals, Value: "13001"},
	}

	updated, matched := applyQuota(rules, parisContact())
	if matched {
		t.Fatal("expected no rule to match")
	}
	if updated[0].CurrentCount != 0 {
		t.Fatalf("expected counter untouched, got %d", updated[0].CurrentCount)
	}
}

func TestApplyQuotaCustomFieldLookup(t *testing.T) {
	rules := []repository.QuotaRule{
		{ContactField: "segment", Operator: repository.OperatorEquals, Value: "premium"},
	}

	_, matched := applyQuota(rules, parisContact())
	if !matched {
		t.Fatal("expected custom-field rule to match")
	}
}

func TestRuleMatchesUnknownOperator(t *testing.T) {
	rule := repository.QuotaRule{ContactField: "postalCode", Operator: "contains", Value: "75"}
	if ruleMatches(rule, "75000") {
		t.Fatal("expected unknown operator to never match")
	}
}

func TestApplyQuotaEmptyRules(t *testing.T) {
	updated, matched := applyQuota(nil, parisContact())
	if matched {
		t.Fatal("expected no match on empty rule list")
	}
	if len(updated) != 0 {
		t.Fatalf("expected empty rule list back, got %+v", updated)
	}
}
