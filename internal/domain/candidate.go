package domain

import "strings"

// Candidate is one upstream model endpoint, tried in fallback order
type Candidate struct {
	Model string `json:"model"`
}

// CandidatesFromModels builds an ordered candidate list, dropping blank names
func CandidatesFromModels(models []string) []Candidate {
	candidates := make([]Candidate, 0, len(models))
	for _, model := range models {
		model = strings.TrimSpace(model)
		if model == "" {
			continue
		}
		candidates = append(candidates, Candidate{Model: model})
	}
	return candidates
}
