package document

import (
	"fmt"
	"strings"

	"alertctl/internal/core/engine"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/platform/net/http/bind"
)

// CheckDetection runs struct and rule checks. The first failure becomes the message,
// every failure goes into the report
func CheckDetection(d Detection) error {
	var report []string
	if err := bind.Get().Validator.Struct(d); err != nil {
		report = append(report, bind.Messages(err)...)
	}
	report = append(report, ruleProblems(d.Rules)...)
	return asValidation(report)
}

// CheckSubscription runs struct checks on a subscription document
func CheckSubscription(s Subscription) error {
	var report []string
	if err := bind.Get().Validator.Struct(s); err != nil {
		report = append(report, bind.Messages(err)...)
	}
	seen := map[string]bool{}
	for _, n := range s.DetectionNames {
		if seen[n] {
			report = append(report, fmt.Sprintf("detection %q is listed more than once", n))
		}
		seen[n] = true
	}
	return asValidation(report)
}

func asValidation(report []string) error {
	if len(report) == 0 {
		return nil
	}
	return perr.Validation(report[0], strings.Join(report, "; "))
}

func ruleProblems(rules []Rule) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range rules {
		if r.Name != "" && seen[r.Name] {
			out = append(out, fmt.Sprintf("rule name %q is used more than once", r.Name))
		}
		seen[r.Name] = true

		p := r.Params
		switch engine.RuleType(r.Type) {
		case engine.MeanBaseline:
			if v, ok := p["lookback"]; ok && v < 1 {
				out = append(out, fmt.Sprintf("rule %q: lookback must be at least 1", r.Name))
			}
			if v, ok := p["k"]; ok && v <= 0 {
				out = append(out, fmt.Sprintf("rule %q: k must be positive", r.Name))
			}
		case engine.Threshold:
			lo, hasLo := p["min"]
			hi, hasHi := p["max"]
			if !hasLo && !hasHi {
				out = append(out, fmt.Sprintf("rule %q: threshold needs min or max", r.Name))
			}
			if hasLo && hasHi && lo > hi {
				out = append(out, fmt.Sprintf("rule %q: min is greater than max", r.Name))
			}
		case engine.PercentageChange:
			if v, ok := p["pct"]; ok && v <= 0 {
				out = append(out, fmt.Sprintf("rule %q: pct must be positive", r.Name))
			}
			if v, ok := p["offset"]; ok && v < 1 {
				out = append(out, fmt.Sprintf("rule %q: offset must be at least 1", r.Name))
			}
		}
	}
	return out
}
