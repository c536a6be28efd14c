// Package document parses and checks the YAML documents that describe detections and subscriptions
package document

import (
	"strings"

	"alertctl/internal/core/engine"
	perr "alertctl/internal/platform/errors"
	pstr "alertctl/internal/platform/strings"

	"gopkg.in/yaml.v3"
)

// Top-level keys read before a full parse
const (
	KeyDetectionName    = "detectionName"
	KeySubscriptionName = "subscriptionGroupName"
	KeyActive           = "active"
)

// Detection is a parsed detection document
type Detection struct {
	DetectionName string   `yaml:"detectionName" json:"detectionName" validate:"required,max=256"`
	Description   string   `yaml:"description"   json:"description"   validate:"max=1024"`
	Dataset       string   `yaml:"dataset"       json:"dataset"       validate:"required"`
	Metric        string   `yaml:"metric"        json:"metric"        validate:"required"`
	Active        *bool    `yaml:"active"        json:"active"`
	Owners        []string `yaml:"owners"        json:"owners"        validate:"dive,required"`
	Rules         []Rule   `yaml:"rules"         json:"rules"         validate:"required,min=1,dive"`
}

// Rule is one entry of a detection's rules list
type Rule struct {
	Name   string             `yaml:"name"   json:"name"   validate:"required,rule_name"`
	Type   string             `yaml:"type"   json:"type"   validate:"required,oneof=MEAN_BASELINE THRESHOLD PERCENTAGE_CHANGE"`
	Params map[string]float64 `yaml:"params" json:"params"`
}

// Subscription is a parsed subscription group document
type Subscription struct {
	SubscriptionGroupName string              `yaml:"subscriptionGroupName" json:"subscriptionGroupName" validate:"required,max=256"`
	Application           string              `yaml:"application"           json:"application"`
	Active                *bool               `yaml:"active"                json:"active"`
	Owners                []string            `yaml:"owners"                json:"owners"                validate:"dive,required"`
	DetectionNames        []string            `yaml:"detectionNames"        json:"detectionNames"        validate:"required,min=1,dive,required"`
	Cron                  string              `yaml:"cron"                  json:"cron"`
	Recipients            map[string][]string `yaml:"recipients"            json:"recipients"            validate:"dive,keys,oneof=to cc bcc,endkeys,dive,email"`
}

// IsActive resolves the optional active flag, defaulting to true
func (d Detection) IsActive() bool { return d.Active == nil || *d.Active }

// IsActive resolves the optional active flag, defaulting to true
func (s Subscription) IsActive() bool { return s.Active == nil || *s.Active }

// Components turns the rules into engine components keyed "<rule>:<TYPE>"
func (d Detection) Components() []engine.Component {
	out := make([]engine.Component, 0, len(d.Rules))
	for _, r := range d.Rules {
		t := engine.RuleType(r.Type)
		params := make(map[string]float64, len(r.Params))
		for k, v := range r.Params {
			params[k] = v
		}
		out = append(out, engine.Component{
			Key:    engine.ComponentKey(r.Name, t),
			Rule:   r.Name,
			Type:   t,
			Params: params,
		})
	}
	return out
}

// ParseDetection decodes a detection document. Malformed YAML is a validation error
func ParseDetection(doc string) (Detection, error) {
	var d Detection
	if err := decode(doc, &d); err != nil {
		return Detection{}, err
	}
	return d, nil
}

// ParseSubscription decodes a subscription document. Malformed YAML is a validation error
func ParseSubscription(doc string) (Subscription, error) {
	var s Subscription
	if err := decode(doc, &s); err != nil {
		return Subscription{}, err
	}
	return s, nil
}

func decode(doc string, into any) error {
	if err := yaml.Unmarshal([]byte(doc), into); err != nil {
		return perr.Validation("Unable to parse the document", err.Error())
	}
	return nil
}

// fields decodes only the top-level mapping
func fields(doc string) (map[string]any, error) {
	m := map[string]any{}
	if err := decode(doc, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// DetectionName extracts detectionName without a full parse
func DetectionName(doc string) (string, error) {
	m, err := fields(doc)
	if err != nil {
		return "", err
	}
	name, _ := m[KeyDetectionName].(string)
	if pstr.Blank(name) {
		return "", perr.Validationf("%s cannot be left empty", KeyDetectionName)
	}
	return name, nil
}

// SubscriptionName extracts subscriptionGroupName without a full parse
func SubscriptionName(doc string) (string, error) {
	m, err := fields(doc)
	if err != nil {
		return "", err
	}
	name, _ := m[KeySubscriptionName].(string)
	if pstr.Blank(name) {
		return "", perr.Validationf("Missing property %s in the subscription config.", KeySubscriptionName)
	}
	return name, nil
}

// ExplicitlyInactive reports whether doc sets active to false.
// Anything else, including a document that does not parse, counts as active
func ExplicitlyInactive(doc string) bool {
	m, err := fields(doc)
	if err != nil {
		return false
	}
	switch v := m[KeyActive].(type) {
	case bool:
		return !v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "false")
	default:
		return false
	}
}
