// Package permission decides whether a caller holds an access level on a
// component instance, using an ordered rule table where the first match wins.
package permission

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"ratings/internal/identity"
)

// Component is the permission component every ratings check is made against.
const Component = "Ratings::"

const (
	RoleAny           = "*"
	RoleAnonymous     = "anonymous"
	RoleAuthenticated = "authenticated"
)

// Rule grants Level to callers matching Role on every component and instance
// matched by the Component and Instance patterns.
type Rule struct {
	Role      string `yaml:"role"`
	Component string `yaml:"component"`
	Instance  string `yaml:"instance"`
	Level     Level  `yaml:"level"`

	component *regexp.Regexp
	instance  *regexp.Regexp
}

type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// Checker evaluates rules in order.
type Checker struct {
	rules []Rule
}

// NewChecker compiles the rule patterns. Patterns are anchored at both ends.
func NewChecker(rules []Rule) (*Checker, error) {
	compiled := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if r.Role == "" {
			return nil, fmt.Errorf("rule %d: role is required", i)
		}
		var err error
		if r.component, err = compilePattern(r.Component); err != nil {
			return nil, fmt.Errorf("rule %d: component: %w", i, err)
		}
		if r.instance, err = compilePattern(r.Instance); err != nil {
			return nil, fmt.Errorf("rule %d: instance: %w", i, err)
		}
		compiled = append(compiled, r)
	}
	return &Checker{rules: compiled}, nil
}

// LoadRules reads a YAML rule file of the form:
//
//	rules:
//	  - role: admin
//	    component: ".*"
//	    instance: ".*"
//	    level: admin
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read permission rules: %w", err)
	}
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse permission rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("permission rules file %s has no rules", path)
	}
	return f.Rules, nil
}

// DefaultRules gives admins full access and everybody else enough to read and vote.
func DefaultRules() []Rule {
	return []Rule{
		{Role: "admin", Component: ".*", Instance: ".*", Level: LevelAdmin},
		{Role: RoleAny, Component: ".*", Instance: ".*", Level: LevelComment},
	}
}

// Level returns the level granted by the first matching rule.
func (c *Checker) Level(caller identity.Caller, component, instance string) Level {
	for _, r := range c.rules {
		if !roleMatches(r.Role, caller) {
			continue
		}
		if r.component.MatchString(component) && r.instance.MatchString(instance) {
			return r.Level
		}
	}
	return LevelNone
}

// Check reports whether caller holds at least level on component/instance.
func (c *Checker) Check(caller identity.Caller, component, instance string, level Level) bool {
	return c.Level(caller, component, instance) >= level
}

func roleMatches(role string, caller identity.Caller) bool {
	switch role {
	case RoleAny:
		return true
	case RoleAnonymous:
		return !caller.Authenticated
	case RoleAuthenticated:
		return caller.Authenticated
	default:
		return caller.Authenticated && caller.Role == role
	}
}

func compilePattern(p string) (*regexp.Regexp, error) {
	if p == "" {
		p = ".*"
	}
	return regexp.Compile("^(?:" + p + ")$")
}
