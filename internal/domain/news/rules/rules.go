// Package rules implements the pure post filtering rules: exclusion
// patterns, the photo exemption, and the minimum text length. It performs
// no I/O; the active rule set is loaded once per run and handed in.
package rules

import (
	"fmt"
	"strings"

	"github.com/yourusername/telegram-news-collector/internal/domain"
	"github.com/yourusername/telegram-news-collector/internal/domain/news/entities"
)

// Decision is the outcome of classifying a post.
type Decision struct {
	Collect bool
	Reason  string
}

// Evaluator decides whether a post is worth collecting. Immutable after
// construction and safe for concurrent use.
type Evaluator struct {
	rules         []entities.ExclusionRule
	minTextLength int
}

// NewEvaluator builds an evaluator over the active rule set. Rule slice
// order is evaluation order: the first matching rule wins.
func NewEvaluator(activeRules []entities.ExclusionRule, minTextLength int) *Evaluator {
	return &Evaluator{
		rules:         activeRules,
		minTextLength: minTextLength,
	}
}

// Classify applies the filtering rules in order:
//  1. exclusion patterns drop the post, even a photo-bearing one
//  2. posts with a photo are always collected
//  3. posts with other media need at least minTextLength of text
//  4. text-only posts need at least minTextLength of text
func (e *Evaluator) Classify(post *domain.Post) Decision {
	textLength := len([]rune(post.Text))

	if post.Text != "" {
		if rule := e.matchExclusion(post.Text); rule != nil {
			return Decision{
				Collect: false,
				Reason:  fmt.Sprintf("matched exclusion rule %d (%s)", rule.ID, rule.RuleKind),
			}
		}
	}

	if post.HasPhoto() {
		return Decision{Collect: true, Reason: "has photo"}
	}

	if post.HasOtherMedia {
		if textLength < e.minTextLength {
			return Decision{
				Collect: false,
				Reason:  fmt.Sprintf("has media but text too short (%d < %d)", textLength, e.minTextLength),
			}
		}
		return Decision{Collect: true, Reason: "has media with sufficient text"}
	}

	if textLength < e.minTextLength {
		return Decision{
			Collect: false,
			Reason:  fmt.Sprintf("text too short (%d < %d)", textLength, e.minTextLength),
		}
	}

	return Decision{Collect: true, Reason: "text message with sufficient length"}
}

// matchExclusion returns the first rule matching the text, or nil.
func (e *Evaluator) matchExclusion(text string) *entities.ExclusionRule {
	for i := range e.rules {
		rule := &e.rules[i]

		candidate := text
		pattern := rule.Pattern
		if !rule.CaseSensitive {
			candidate = strings.ToLower(candidate)
			pattern = strings.ToLower(pattern)
		}

		switch rule.RuleKind {
		case entities.RuleKindExact:
			if candidate == pattern {
				return rule
			}
		case entities.RuleKindContains:
			if strings.Contains(candidate, pattern) {
				return rule
			}
		}
	}
	return nil
}
