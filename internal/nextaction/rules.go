package nextaction

import (
	"fmt"

	"github.com/Knetic/govaluate"

	"github.com/yourorg/payment-router/internal/domain"
)

// defaultSessionTokenRules gates the connector/payment-method combinations
// whose client SDKs drive the whole payment through a session token.
var defaultSessionTokenRules = []string{
	"connector == 'trustpay' && payment_method == 'wallet'",
	"connector == 'payme' && payment_method == 'wallet'",
	"connector == 'plaid' && payment_method == 'open_banking' && payment_method_type == 'open_banking_pis'",
}

// SessionTokenRules decides third-party SDK session eligibility from a set
// of compiled boolean expressions over the attempt's routing facts. Rules
// are expressions rather than a hardcoded switch so deployments can extend
// the set from configuration.
type SessionTokenRules struct {
	rules []*govaluate.EvaluableExpression
}

// NewSessionTokenRules compiles the given expressions. Each expression sees
// the parameters connector, payment_method and payment_method_type.
func NewSessionTokenRules(expressions []string) (*SessionTokenRules, error) {
	compiled := make([]*govaluate.EvaluableExpression, 0, len(expressions))
	for _, raw := range expressions {
		expr, err := govaluate.NewEvaluableExpression(raw)
		if err != nil {
			return nil, fmt.Errorf("compile session token rule %q: %w", raw, err)
		}
		compiled = append(compiled, expr)
	}
	return &SessionTokenRules{rules: compiled}, nil
}

// DefaultSessionTokenRules returns the built-in rule set.
func DefaultSessionTokenRules() *SessionTokenRules {
	rules, err := NewSessionTokenRules(defaultSessionTokenRules)
	if err != nil {
		panic(fmt.Sprintf("nextaction: default rules must compile: %v", err))
	}
	return rules
}

// Eligible reports whether any rule matches the attempt. Evaluation errors
// in a rule count as non-matches; a misconfigured rule must not block a
// payment.
func (s *SessionTokenRules) Eligible(attempt domain.PaymentAttempt) bool {
	pmt := ""
	if attempt.PaymentMethodType != nil {
		pmt = string(*attempt.PaymentMethodType)
	}
	params := map[string]interface{}{
		"connector":           attempt.Connector,
		"payment_method":      string(attempt.PaymentMethod),
		"payment_method_type": pmt,
	}
	for _, rule := range s.rules {
		result, err := rule.Evaluate(params)
		if err != nil {
			continue
		}
		if matched, ok := result.(bool); ok && matched {
			return true
		}
	}
	return false
}
