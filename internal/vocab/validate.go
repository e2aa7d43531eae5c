package vocab

import (
	"fmt"
	"strings"

	"github.com/aretw0/colloquy/internal/condition"
	"github.com/aretw0/colloquy/pkg/domain"
)

// Severity of a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Node     string   `json:"node,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.Node == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Node, i.Message)
}

// Report collects validation findings. Errors make turns fail (and recover)
// at run time; warnings point at probable authoring mistakes.
type Report struct {
	Issues []Issue `json:"issues"`
}

func (r *Report) add(sev Severity, node, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Node: node, Message: fmt.Sprintf(format, args...)})
}

// Errors returns the error-level issues.
func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns the warning-level issues.
func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r *Report) filter(sev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

// Err summarizes the error-level issues, or returns nil.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(lines, "\n- "))
}

// Validate checks a vocabulary for broken links, unknown node types, missing
// phrases, malformed conditions and nodes unreachable from the default node.
// An empty knownTypes skips the type check.
func Validate(v *domain.Vocabulary, knownTypes []string) *Report {
	r := &Report{}
	universe := make(map[string]struct{})
	for _, t := range v.TagUniverse() {
		universe[t] = struct{}{}
	}

	if _, ok := v.Node(v.DefaultNode); !ok {
		r.add(SeverityError, "", "default node %q not found", v.DefaultNode)
	}

	for _, name := range v.NodeNames() {
		n, _ := v.Node(name)

		if len(knownTypes) > 0 && !contains(knownTypes, n.Type) {
			r.add(SeverityError, name, "unknown node type %q", n.Type)
		}
		if len(n.Prompts) == 0 {
			r.add(SeverityError, name, "no prompt (q)")
		}
		if len(n.WrongPhrases) == 0 && len(v.WrongPhrases) == 0 {
			r.add(SeverityError, name, "no misunderstood phrase (wrong) and no global fallback")
		}

		for i, a := range n.Answers {
			label := answerLabel(i, a)
			switch {
			case a.Goto == "":
				r.add(SeverityError, name, "%s has no goto", label)
			case a.External:
				if a.DisplayName == "" {
					r.add(SeverityWarning, name, "%s links to %s but has no name, so it is never shown", label, a.Goto)
				}
			default:
				if _, ok := v.Node(a.Goto); !ok {
					r.add(SeverityError, name, "%s points to missing node %q", label, a.Goto)
				}
			}

			if a.DisplayName == "" && len(a.Words) == 0 && a.ContentType == "" && !a.External {
				r.add(SeverityWarning, name, "%s can never be selected (no name, words or type)", label)
			}

			if a.Condition != "" {
				expr, err := condition.Compile(a.Condition)
				if err != nil {
					r.add(SeverityError, name, "%s: %v", label, err)
					continue
				}
				if _, err := expr.Eval(universeEnv(universe)); err != nil {
					r.add(SeverityWarning, name, "%s: condition %q: %v", label, a.Condition, err)
				}
			}
		}
	}

	for _, name := range unreachable(v) {
		r.add(SeverityWarning, name, "unreachable from default node %q", v.DefaultNode)
	}
	return r
}

// universeEnv resolves every known tag to one. Evaluating against it surfaces
// identifiers that no answer ever collects.
type universeEnv map[string]struct{}

func (u universeEnv) Lookup(name string) (float64, bool) {
	_, ok := u[name]
	return 1, ok
}

func answerLabel(i int, a domain.AnswerSpec) string {
	if a.DisplayName != "" {
		return fmt.Sprintf("answer #%d (%q)", i, a.DisplayName)
	}
	return fmt.Sprintf("answer #%d", i)
}

// unreachable walks the graph breadth-first from the default node.
func unreachable(v *domain.Vocabulary) []string {
	visited := make(map[string]bool)
	queue := []string{v.DefaultNode}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		n, ok := v.Node(current)
		if !ok {
			continue
		}
		for _, a := range n.Answers {
			if !a.External && a.Goto != "" && !visited[a.Goto] {
				queue = append(queue, a.Goto)
			}
		}
	}

	var out []string
	for _, name := range v.NodeNames() {
		if !visited[name] {
			out = append(out, name)
		}
	}
	return out
}
