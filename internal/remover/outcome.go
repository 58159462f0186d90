package remover

import "fmt"

// Kind classifies the result of one removal attempt.
type Kind int

const (
	Removed Kind = iota
	NotFound
	AccessDenied
	ParseFailed
	Failed
)

func (k Kind) String() string {
	switch k {
	case Removed:
		return "removed"
	case NotFound:
		return "not found"
	case AccessDenied:
		return "access denied"
	case ParseFailed:
		return "unparseable path"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Outcome records what happened to one key. Err is nil for Removed.
type Outcome struct {
	KeyPath string
	Kind    Kind
	Err     error
}

// OK reports whether the key was removed.
func (o Outcome) OK() bool { return o.Kind == Removed }

func (o Outcome) String() string {
	if o.Err == nil {
		return fmt.Sprintf("%s: %s", o.KeyPath, o.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", o.KeyPath, o.Kind, o.Err)
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	outcomes []Outcome
	counts   map[Kind]int
}

// Add records an outcome.
func (s *Summary) Add(o Outcome) {
	if s.counts == nil {
		s.counts = make(map[Kind]int)
	}
	s.outcomes = append(s.outcomes, o)
	s.counts[o.Kind]++
}

// Count returns how many outcomes of kind k were recorded.
func (s *Summary) Count(k Kind) int { return s.counts[k] }

// Total returns the number of recorded outcomes.
func (s *Summary) Total() int { return len(s.outcomes) }

// Outcomes returns every outcome in the order recorded.
func (s *Summary) Outcomes() []Outcome { return s.outcomes }

// Failures returns the outcomes that did not remove a key.
func (s *Summary) Failures() []Outcome {
	var out []Outcome
	for _, o := range s.outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// OK reports whether every recorded outcome removed its key.
func (s *Summary) OK() bool { return s.Count(Removed) == s.Total() }
