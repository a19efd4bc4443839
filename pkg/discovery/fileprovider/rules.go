package fileprovider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Semior001/restmock/pkg/discovery"
	"github.com/Semior001/restmock/pkg/xpathx"
)

// parseRules converts the validated document into routing rules,
// keeping the declaration order.
func parseRules(ctx context.Context, c Config) ([]*discovery.Rule, error) {
	parseResource := func(r Resource) discovery.Resource {
		return discovery.Resource{
			Location: r.Location,
			Delay:    time.Duration(r.Delay) * time.Millisecond,
		}
	}

	parseRule := func(r Rule) (result discovery.Rule, err error) {
		result = discovery.Rule{
			Method:     strings.ToUpper(r.Method),
			URL:        r.URL,
			Namespaces: r.Namespaces,
		}

		if r.Resource != nil {
			res := parseResource(*r.Resource)
			result.Resource = &res
		}

		switch result.Method {
		case discovery.MethodGet:
			if r.Resource == nil {
				return discovery.Rule{}, errors.New("GET rule must have a resource")
			}
			if len(r.Groups) > 0 {
				return discovery.Rule{}, errors.New("GET rule can't have groups")
			}
		case discovery.MethodPost:
			if r.Resource != nil && len(r.Groups) > 0 {
				return discovery.Rule{}, errors.New("can't set both resource and groups in rule")
			}
			if r.Resource == nil && len(r.Groups) == 0 {
				return discovery.Rule{}, errors.New("empty response in rule")
			}
		default:
			return discovery.Rule{}, fmt.Errorf("unsupported method %q", r.Method)
		}

		for idx, g := range r.Groups {
			group := discovery.Group{Resource: parseResource(g.Resource)}
			if g.XPath != "" {
				if group.Condition, err = xpathx.Compile(g.XPath, r.Namespaces); err != nil {
					return discovery.Rule{}, fmt.Errorf("group #%d: %w", idx, err)
				}
			}
			result.Groups = append(result.Groups, group)
		}

		return result, nil
	}

	rules := make([]*discovery.Rule, 0, len(c.Rules))
	seen := make(map[string]int, len(c.Rules))
	for idx, r := range c.Rules {
		rule, err := parseRule(r)
		if err != nil {
			return nil, fmt.Errorf("parse rule #%d: %w", idx, err)
		}

		for gidx, g := range rule.Groups[:max(len(rule.Groups)-1, 0)] {
			if g.Unconditional() {
				slog.WarnContext(ctx, "group without xpath is not the last one, following groups are never matched",
					slog.String("rule", rule.String()),
					slog.Int("group", gidx))
			}
		}

		key := rule.Method + " " + rule.URL
		if prev, ok := seen[key]; ok {
			slog.WarnContext(ctx, "duplicate rule, the last one wins",
				slog.String("rule", key),
				slog.Int("previous", prev),
				slog.Int("current", idx))
		}
		seen[key] = idx

		rules = append(rules, &rule)
	}

	return rules, nil
}
