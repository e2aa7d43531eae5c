package runtime

import (
	"log/slog"

	"github.com/aretw0/colloquy/internal/condition"
	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/internal/morph"
	"github.com/aretw0/colloquy/pkg/domain"
)

// AnswerMatcher evaluates answer visibility and selects answers for events.
// Safe for concurrent use.
type AnswerMatcher struct {
	words      *morph.Matcher
	conditions condition.Cache
	logger     *slog.Logger
}

// NewAnswerMatcher creates a matcher. A nil words matcher compares literally.
func NewAnswerMatcher(words *morph.Matcher, logger *slog.Logger) *AnswerMatcher {
	if words == nil {
		words = morph.NewMatcher(nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AnswerMatcher{words: words, logger: logger}
}

// Visible reports whether the answer's condition holds under tags.
// Answers whose condition cannot be evaluated are hidden.
func (m *AnswerMatcher) Visible(node string, a *domain.AnswerSpec, tags domain.Tags) bool {
	if a.Condition == "" {
		return true
	}
	ok, err := m.conditions.Eval(a.Condition, condition.MapEnv(tags))
	if err != nil {
		m.logger.Debug("Answer hidden by failing condition",
			"node", node,
			"condition", a.Condition,
			"err", err,
		)
		return false
	}
	return ok
}

// Rendered returns the answers shown as choices, in order: visible and named.
// A choice index refers to a position in this list.
func (m *AnswerMatcher) Rendered(node string, answers []domain.AnswerSpec, tags domain.Tags) []domain.AnswerSpec {
	var out []domain.AnswerSpec
	for i := range answers {
		a := &answers[i]
		if a.DisplayName != "" && m.Visible(node, a, tags) {
			out = append(out, *a)
		}
	}
	return out
}

// Match walks the answers in declared order and returns the first one accepting ev:
//  1. a choice index equal to the answer's position among rendered answers;
//  2. free text sharing a base form with the answer's words;
//  3. content of the answer's declared type.
//
// External-link answers take part in numbering but are never selected.
func (m *AnswerMatcher) Match(node string, answers []domain.AnswerSpec, ev domain.Event, tags domain.Tags) (*domain.AnswerSpec, bool) {
	rendered := 0
	for i := range answers {
		a := &answers[i]
		if !m.Visible(node, a, tags) {
			continue
		}

		position := -1
		if a.DisplayName != "" {
			position = rendered
			rendered++
		}
		if a.External {
			continue
		}

		if ev.HasChoice() {
			if position >= 0 && *ev.Choice == position {
				return m.selected(a), true
			}
		} else if ev.Kind == domain.KindText && len(a.Words) > 0 {
			if m.words.Matches(a.Words, ev.Text) {
				return m.selected(a), true
			}
		}

		if a.ContentType != "" && a.ContentType == ev.Kind {
			return m.selected(a), true
		}
	}
	return nil, false
}

func (m *AnswerMatcher) selected(a *domain.AnswerSpec) *domain.AnswerSpec {
	out := *a
	return &out
}
