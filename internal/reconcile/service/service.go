package service

import (
	"fmt"
	"sort"
	"strings"

	"cargo-recon/internal/reconcile/model"
)

const (
	minPhoneDigits = 8

	phoneScore        = 0.95
	fuzzyThreshold    = 0.7
	fuzzyWeight       = 0.9
	candidateCeiling  = 0.95
	regionNameFloor   = 0.5
	regionBonus       = 0.1
	verifiedThreshold = 0.95
	similarThreshold  = 0.7
	maxCandidates     = 3
)

// Match scores item against every active customer. Signals are phone, exact
// name, fuzzy name and region; a customer's score is the highest floor its
// signals trigger. The first customer reaching the best score wins.
func Match(item model.ParsedItem, customers []model.Customer) model.MatchResult {
	itemPhone := NormalizePhone(item.Phone)
	itemName := NormalizeName(item.Name)

	var (
		best        *model.Customer
		bestScore   float64
		bestFactors []model.Factor
		candidates  []model.Candidate
	)

	for i := range customers {
		c := &customers[i]
		if !c.Active {
			continue
		}
		var (
			score   float64
			factors []model.Factor
		)

		// (1) phone
		custPhone := NormalizePhone(c.Phone)
		phoneHit := phonesMatch(itemPhone, custPhone)
		if phoneHit {
			factors = append(factors, model.FactorPhone)
			score = max(score, phoneScore)
		}

		// (2) name
		sim := 0.0
		if itemName != "" {
			sim = Similarity(item.Name, c.Name)
		}
		regionHit := regionsMatch(item.Region, c.Region)
		switch {
		case itemName != "" && sim == 1:
			factors = append(factors, model.FactorExactName)
			score = max(score, 1.0)
		case sim >= fuzzyThreshold:
			factors = append(factors, model.FactorFuzzyName)
			score = max(score, sim*fuzzyWeight)
			if !phoneHit && sim < candidateCeiling {
				candidates = append(candidates, model.Candidate{
					Customer:   *c,
					Similarity: sim,
					Reason:     candidateReason(sim, regionHit),
				})
			}
		}

		// (3) region
		if regionHit {
			factors = append(factors, model.FactorRegion)
			if sim >= regionNameFloor {
				score = max(score, (sim+regionBonus)*fuzzyWeight)
			}
		}

		if score > bestScore {
			best, bestScore, bestFactors = c, score, factors
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	if candidates == nil {
		candidates = []model.Candidate{}
	}

	res := model.MatchResult{
		Status:     Classify(bestScore),
		Candidates: candidates,
		Confidence: bestScore,
		Factors:    []model.Factor{},
	}
	if res.Status != model.StatusNewCustomer && best != nil {
		snapshot := *best
		res.Customer = &snapshot
		res.Factors = bestFactors
	}
	return res
}

// MatchAll matches every item against the same customer snapshot.
func MatchAll(items []model.ParsedItem, customers []model.Customer) []model.MatchResult {
	out := make([]model.MatchResult, len(items))
	for i, it := range items {
		out[i] = Match(it, customers)
	}
	return out
}

// Classify maps a confidence score to a status.
func Classify(score float64) model.MatchStatus {
	switch {
	case score >= verifiedThreshold:
		return model.StatusVerified
	case score >= similarThreshold:
		return model.StatusSimilar
	default:
		return model.StatusNewCustomer
	}
}

func phonesMatch(a, b string) bool {
	if !UsablePhone(a) || !UsablePhone(b) {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func candidateReason(sim float64, region bool) string {
	r := fmt.Sprintf("name %.0f%% similar", sim*100)
	if region {
		r += ", same region"
	}
	return r
}
