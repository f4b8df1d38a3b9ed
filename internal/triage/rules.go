package triage

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nao1215/embedleak/internal/model"
)

// PredicateKind selects how a rule's pattern is matched against a URL.
type PredicateKind string

const (
	// KindGlob matches a doublestar glob against the URL path.
	KindGlob PredicateKind = "glob"
	// KindRegex matches a regular expression against the full URL.
	KindRegex PredicateKind = "regex"
	// KindContains matches a substring of the full URL.
	KindContains PredicateKind = "contains"
	// KindAny matches every URL. Only a catch-all rule uses it.
	KindAny PredicateKind = "any"
)

// CategoryRule assigns a priority to URLs of a given shape.
type CategoryRule struct {
	Name        string
	Kind        PredicateKind
	Pattern     string
	Priority    model.Priority
	Description string

	re *regexp.Regexp
}

// NewRule validates and compiles a rule.
func NewRule(name string, kind PredicateKind, pattern string, priority model.Priority, description string) (CategoryRule, error) {
	r := CategoryRule{
		Name:        strings.TrimSpace(name),
		Kind:        PredicateKind(strings.ToLower(strings.TrimSpace(string(kind)))),
		Pattern:     pattern,
		Priority:    priority,
		Description: description,
	}
	if r.Name == "" {
		return CategoryRule{}, fmt.Errorf("%w: rule name is empty", ErrInvalidRule)
	}
	if priority < model.PrioritySkip || priority > model.PriorityHigh {
		return CategoryRule{}, fmt.Errorf("%w: %s: invalid priority %d", ErrInvalidRule, r.Name, int(priority))
	}

	switch r.Kind {
	case KindGlob:
		if r.Pattern == "" || !doublestar.ValidatePattern(r.Pattern) {
			return CategoryRule{}, fmt.Errorf("%w: %s: bad glob %q", ErrInvalidRule, r.Name, r.Pattern)
		}
	case KindRegex:
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return CategoryRule{}, fmt.Errorf("%w: %s: %w", ErrInvalidRule, r.Name, err)
		}
		r.re = re
	case KindContains:
		if r.Pattern == "" {
			return CategoryRule{}, fmt.Errorf("%w: %s: empty substring", ErrInvalidRule, r.Name)
		}
	case KindAny:
	default:
		return CategoryRule{}, fmt.Errorf("%w: %s: unknown predicate kind %q", ErrInvalidRule, r.Name, r.Kind)
	}
	return r, nil
}

// IsCatchAll reports whether the rule matches every URL.
func (r CategoryRule) IsCatchAll() bool {
	return r.Kind == KindAny
}

// Matches reports whether rawURL has the rule's shape.
func (r CategoryRule) Matches(rawURL string) bool {
	switch r.Kind {
	case KindAny:
		return true
	case KindGlob:
		ok, err := doublestar.Match(r.Pattern, urlPath(rawURL))
		return err == nil && ok
	case KindRegex:
		return r.re != nil && r.re.MatchString(rawURL)
	case KindContains:
		return strings.Contains(rawURL, r.Pattern)
	default:
		return false
	}
}

// urlPath returns the path of rawURL, or "/" for a URL without one. Strings
// that do not parse are matched as they are.
func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

// RuleSet is an ordered, validated rule list ending with a catch-all.
// It is immutable once built.
type RuleSet struct {
	rules []CategoryRule
}

// NewRuleSet validates the order and uniqueness of rules.
func NewRuleSet(rules []CategoryRule) (*RuleSet, error) {
	if len(rules) == 0 || !rules[len(rules)-1].IsCatchAll() {
		return nil, ErrNoCatchAll
	}
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if seen[r.Name] {
			return nil, fmt.Errorf("%w: duplicate rule name %q", ErrInvalidRule, r.Name)
		}
		seen[r.Name] = true
		if r.IsCatchAll() && i != len(rules)-1 {
			return nil, fmt.Errorf("%w: catch-all rule %q must be last", ErrInvalidRule, r.Name)
		}
	}
	return &RuleSet{rules: append([]CategoryRule(nil), rules...)}, nil
}

// Rules returns a copy of the rules in order.
func (rs *RuleSet) Rules() []CategoryRule {
	return append([]CategoryRule(nil), rs.rules...)
}

// Classify returns the first rule matching rawURL.
func (rs *RuleSet) Classify(rawURL string) (CategoryRule, error) {
	for _, r := range rs.rules {
		if r.Matches(rawURL) {
			return r, nil
		}
	}
	return CategoryRule{}, fmt.Errorf("%w: %s", ErrUncategorizedURL, rawURL)
}

// RuleDef is the declarative form of a rule, as read from configuration.
type RuleDef struct {
	Name        string
	Kind        string
	Pattern     string
	Priority    string
	Description string
}

// BuildRuleSet compiles declarative definitions into a RuleSet.
func BuildRuleSet(defs []RuleDef) (*RuleSet, error) {
	rules := make([]CategoryRule, 0, len(defs))
	for _, d := range defs {
		p, err := model.ParsePriority(d.Priority)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRule, d.Name, err)
		}
		r, err := NewRule(d.Name, PredicateKind(d.Kind), d.Pattern, p, d.Description)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return NewRuleSet(rules)
}

// DefaultRuleDefs is the built-in rule list for a typical CMS site.
var DefaultRuleDefs = []RuleDef{
	{Name: "admin", Kind: "glob", Pattern: "/admin/**", Priority: "skip", Description: "Administrative screens not shown to visitors"},
	{Name: "user", Kind: "glob", Pattern: "/user/**", Priority: "skip", Description: "Account pages"},
	{Name: "news", Kind: "glob", Pattern: "/news/**", Priority: "high", Description: "News articles"},
	{Name: "events", Kind: "glob", Pattern: "/events/**", Priority: "high", Description: "Event pages"},
	{Name: "node", Kind: "regex", Pattern: `^[a-z][a-z0-9+.-]*://[^/]+/node/\d+/?(?:[?#].*)?$`, Priority: "medium", Description: "Content pages addressed by node id"},
	{Name: "landing", Kind: "regex", Pattern: `^[a-z][a-z0-9+.-]*://[^/]+/?(?:[^/?#]+/?)?(?:[?#].*)?$`, Priority: "medium", Description: "Home and top-level landing pages"},
	{Name: "taxonomy", Kind: "glob", Pattern: "/taxonomy/term/**", Priority: "low", Description: "Term listing pages"},
	{Name: "other", Kind: "any", Priority: "low", Description: "Everything else"},
}

// DefaultRuleSet returns the built-in rules.
func DefaultRuleSet() *RuleSet {
	rs, err := BuildRuleSet(DefaultRuleDefs)
	if err != nil {
		panic(err) // the built-in rules are valid
	}
	return rs
}
