package knowledge

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed faq.yaml
var defaultFAQ []byte

// MaxAnswers is the most entries returned by Search.
const MaxAnswers = 3

// Entry is one FAQ item.
type Entry struct {
	Question string   `yaml:"question"`
	Answer   string   `yaml:"answer"`
	Keywords []string `yaml:"keywords,omitempty"`
}

// Answer is a search hit as reported to the voice agent.
type Answer struct {
	Q string `json:"q"`
	A string `json:"a"`
}

type document struct {
	Entries []Entry `yaml:"entries"`
}

type indexed struct {
	entry   Entry
	primary map[string]bool // question and keyword terms
	answer  map[string]bool
}

// Base is an immutable, searchable FAQ.
type Base struct {
	entries []indexed
}

// Default returns the embedded FAQ.
func Default() (*Base, error) {
	return Parse(defaultFAQ)
}

// LoadFile reads a FAQ from a YAML file.
func LoadFile(path string) (*Base, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a FAQ from r.
func Load(r io.Reader) (*Base, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Base from YAML of the form
//
//	entries:
//	  - question: ...
//	    answer: ...
//	    keywords: [...]
func Parse(data []byte) (*Base, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge file: %w", err)
	}
	if len(doc.Entries) == 0 {
		return nil, errors.New("knowledge file has no entries")
	}

	base := &Base{entries: make([]indexed, 0, len(doc.Entries))}
	for i, e := range doc.Entries {
		e.Question = strings.TrimSpace(e.Question)
		e.Answer = strings.TrimSpace(e.Answer)
		if e.Question == "" || e.Answer == "" {
			return nil, fmt.Errorf("knowledge entry %d: question and answer are required", i+1)
		}

		primary := terms(e.Question)
		for _, k := range e.Keywords {
			for t := range terms(k) {
				primary[t] = true
			}
		}
		base.entries = append(base.entries, indexed{
			entry:   e,
			primary: primary,
			answer:  terms(e.Answer),
		})
	}
	return base, nil
}

// Len returns the number of entries.
func (b *Base) Len() int {
	return len(b.entries)
}

// Search returns up to MaxAnswers entries matching query, best first.
// A query term found in the question or keywords scores 2, one found only
// in the answer scores 1. Ties keep file order.
func (b *Base) Search(ctx context.Context, query string) ([]Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := terms(query)
	if len(q) == 0 {
		return []Answer{}, nil
	}

	type hit struct {
		idx   int
		score int
	}
	var hits []hit
	for i, e := range b.entries {
		score := 0
		for t := range q {
			switch {
			case e.primary[t]:
				score += 2
			case e.answer[t]:
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{idx: i, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > MaxAnswers {
		hits = hits[:MaxAnswers]
	}

	answers := make([]Answer, 0, len(hits))
	for _, h := range hits {
		e := b.entries[h.idx].entry
		answers = append(answers, Answer{Q: e.Question, A: e.Answer})
	}
	return answers, nil
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "can": true, "do": true, "does": true, "for": true, "from": true,
	"how": true, "i": true, "if": true, "in": true, "is": true, "it": true,
	"me": true, "my": true, "of": true, "on": true, "or": true, "our": true,
	"the": true, "there": true, "to": true, "we": true, "what": true, "when": true,
	"where": true, "which": true, "who": true, "will": true, "with": true,
	"you": true, "your": true, "much": true, "any": true, "have": true, "has": true,
}

// terms splits s into lowercase words, drops stop words, and folds simple
// plurals ("furnaces" and "furnace" match).
func terms(s string) map[string]bool {
	out := make(map[string]bool)
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if stopWords[w] {
			continue
		}
		out[normalize(w)] = true
	}
	return out
}

func normalize(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss"):
		return w[:len(w)-1]
	}
	return w
}
