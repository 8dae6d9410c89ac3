package service

import (
	"fmt"
	"strings"
)

// DuplicatePolicy controls how repeat votes from the same voter are detected.
type DuplicatePolicy string

const (
	// PolicyHigh rejects a vote when the vote log already has the voter.
	PolicyHigh DuplicatePolicy = "high"
	// PolicyMedium rejects a vote when the voter's session already rated the item.
	PolicyMedium DuplicatePolicy = "medium"
	// PolicyLow accepts every vote.
	PolicyLow DuplicatePolicy = "low"
)

func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
	return p, nil
}

func (p DuplicatePolicy) Valid() bool {
	switch p {
	case PolicyHigh, PolicyMedium, PolicyLow:
		return true
	}
	return false
}
