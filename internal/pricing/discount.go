package pricing

import (
	"fmt"
	"strings"

	"cargo-recon/internal/config"
	"cargo-recon/internal/reconcile/model"
)

type keywordRule struct {
	keywords []string
	rate     float64
	reason   string
}

// RateResolver derives a customer's master discount rate.
type RateResolver struct {
	rules []keywordRule
}

func NewRateResolver(table []config.DiscountKeyword) *RateResolver {
	r := &RateResolver{}
	for _, k := range table {
		rule := keywordRule{rate: k.Rate, reason: k.Reason}
		for _, w := range k.Keywords {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				rule.keywords = append(rule.keywords, w)
			}
		}
		r.rules = append(r.rules, rule)
	}
	return r
}

// Resolve: explicit DiscountPercent first, then the keyword table over
// DiscountInfo, else no discount. A nil customer has no discount.
func (r *RateResolver) Resolve(c *model.Customer) (float64, string) {
	if c == nil {
		return 0, ""
	}
	if c.DiscountPercent != nil {
		rate := min(max(*c.DiscountPercent/100, 0), 1)
		reason := strings.TrimSpace(c.DiscountInfo)
		if reason == "" {
			reason = fmt.Sprintf("customer discount %s%%", num(*c.DiscountPercent))
		}
		return rate, reason
	}
	info := strings.ToLower(c.DiscountInfo)
	if info == "" {
		return 0, ""
	}
	for _, rule := range r.rules {
		for _, w := range rule.keywords {
			if strings.Contains(info, w) {
				return rule.rate, rule.reason
			}
		}
	}
	return 0, ""
}
