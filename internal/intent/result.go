package intent

// Result is what the model produced for one query. It is either Structured,
// when the forced tool was invoked, or PlainText when the model ignored the
// tool and answered in free text.
type Result interface {
	// Intent is nil for PlainText results.
	Intent() *string
	Reply() string
	isResult()
}

// Structured is a reply produced through the forced tool call.
type Structured struct {
	Label string
	Text  string
}

func (s Structured) Intent() *string {
	label := s.Label
	return &label
}

func (s Structured) Reply() string { return s.Text }
func (Structured) isResult()       {}

// PlainText is the fallback for a message without a tool call.
type PlainText struct {
	Content string
}

func (PlainText) Intent() *string { return nil }
func (p PlainText) Reply() string { return p.Content }
func (PlainText) isResult()       {}
