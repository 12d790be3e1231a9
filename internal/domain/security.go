package domain

import (
	"fmt"
	"strings"
)

// PolicyDecision describes how the shield reacts to a risk level.
type PolicyDecision string

const (
	DecisionAllow               PolicyDecision = "allow"
	DecisionDeny                PolicyDecision = "deny"
	DecisionRequireConfirmation PolicyDecision = "require_confirmation"
)

// ParsePolicyDecision converts a rule-file value into a PolicyDecision.
func ParsePolicyDecision(value string) (PolicyDecision, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "allow":
		return DecisionAllow, nil
	case "deny", "block":
		return DecisionDeny, nil
	case "require_confirmation", "confirm":
		return DecisionRequireConfirmation, nil
	default:
		return "", fmt.Errorf("unknown policy decision %q", value)
	}
}

// RuleTable maps every risk level to a decision. A level missing from the
// table is denied.
type RuleTable map[RiskLevel]PolicyDecision

// Decision returns the rule for level, defaulting to deny.
func (t RuleTable) Decision(level RiskLevel) PolicyDecision {
	if d, ok := t[level]; ok {
		return d
	}
	return DecisionDeny
}

// Clone returns an independent copy of the table.
func (t RuleTable) Clone() RuleTable {
	out := make(RuleTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// DefaultRules allows safe actions, asks for moderate and dangerous ones and
// denies critical ones.
func DefaultRules() RuleTable {
	return RuleTable{
		RiskSafe:      DecisionAllow,
		RiskModerate:  DecisionRequireConfirmation,
		RiskDangerous: DecisionRequireConfirmation,
		RiskCritical:  DecisionDeny,
	}
}

// StrictRules only allows safe actions.
func StrictRules() RuleTable {
	return RuleTable{
		RiskSafe:      DecisionAllow,
		RiskModerate:  DecisionDeny,
		RiskDangerous: DecisionDeny,
		RiskCritical:  DecisionDeny,
	}
}

// PermissiveRules allows everything.
func PermissiveRules() RuleTable {
	return RuleTable{
		RiskSafe:      DecisionAllow,
		RiskModerate:  DecisionAllow,
		RiskDangerous: DecisionAllow,
		RiskCritical:  DecisionAllow,
	}
}

// RulesForPreset resolves a named preset.
func RulesForPreset(name string) (RuleTable, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return DefaultRules(), nil
	case "strict":
		return StrictRules(), nil
	case "permissive":
		return PermissiveRules(), nil
	default:
		return nil, fmt.Errorf("unknown safety preset %q", name)
	}
}
