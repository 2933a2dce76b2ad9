package service

import "cargo-recon/internal/reconcile/model"

// FindDuplicates groups items by normalized phone (8+ digits), keeping row
// order, and returns only groups with two or more members.
func FindDuplicates(items []model.ParsedItem) []model.DuplicateGroup {
	byPhone := make(map[string][]model.ParsedItem)
	var order []string
	for _, it := range items {
		p := NormalizePhone(it.Phone)
		if !UsablePhone(p) {
			continue
		}
		if _, ok := byPhone[p]; !ok {
			order = append(order, p)
		}
		byPhone[p] = append(byPhone[p], it)
	}

	var out []model.DuplicateGroup
	for _, p := range order {
		if g := byPhone[p]; len(g) >= 2 {
			out = append(out, model.DuplicateGroup{Phone: p, Items: g})
		}
	}
	return out
}
