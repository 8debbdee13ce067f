package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CrisisLabel is the classifier label that flags a crisis on its own.
const CrisisLabel = "crisis"

// CrisisLevelHigh is reported to the patient when a message is flagged.
const CrisisLevelHigh = "high"

// CrisisPolicy decides whether a patient message signals a crisis.  A
// message is flagged when it contains any keyword or when the classifier
// labelled it "crisis".  The two checks are independent.
//
// Keywords and messages are compared after foldText, so case, Unicode
// composition and accents do not matter: "hacerme daño" typed with a
// combining tilde and "autolesion" without its accent both match.
type CrisisPolicy struct {
	keywords []keyword
}

type keyword struct {
	text   string
	folded string
}

// NewCrisisPolicy builds a policy from DefaultCrisisKeywords plus extra.
// Blank keywords and keywords that fold to the same text are dropped.
func NewCrisisPolicy(extra ...string) *CrisisPolicy {
	seen := make(map[string]bool)
	p := &CrisisPolicy{}
	for _, kw := range append(append([]string{}, DefaultCrisisKeywords...), extra...) {
		kw = strings.ToLower(strings.TrimSpace(norm.NFC.String(kw)))
		folded := foldText(kw)
		if folded == "" || seen[folded] {
			continue
		}
		seen[folded] = true
		p.keywords = append(p.keywords, keyword{text: kw, folded: folded})
	}
	return p
}

// Keywords returns the active keyword list.
func (p *CrisisPolicy) Keywords() []string {
	out := make([]string, len(p.keywords))
	for i, kw := range p.keywords {
		out[i] = kw.text
	}
	return out
}

// MatchKeyword returns the first keyword contained in text.
func (p *CrisisPolicy) MatchKeyword(text string) (string, bool) {
	folded := foldText(text)
	for _, kw := range p.keywords {
		if strings.Contains(folded, kw.folded) {
			return kw.text, true
		}
	}
	return "", false
}

// foldText lowercases s and strips diacritics: NFD, drop combining marks,
// NFC.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = norm.NFC.String(s)
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Assessment is the outcome of evaluating one message.
type Assessment struct {
	Crisis  bool
	Keyword string
	Label   string
}

// Level is "high" for a crisis and empty otherwise.
func (a Assessment) Level() string {
	if a.Crisis {
		return CrisisLevelHigh
	}
	return ""
}

// Evaluate applies the keyword check and the classifier check.  label is the
// raw classifier output; pass "" when no label is available.
func (p *CrisisPolicy) Evaluate(text, label string) Assessment {
	a := Assessment{Label: NormalizeLabel(label)}
	if kw, ok := p.MatchKeyword(text); ok {
		a.Crisis = true
		a.Keyword = kw
	}
	if IsCrisisLabel(a.Label) {
		a.Crisis = true
	}
	return a
}

// NormalizeLabel lowercases a classifier answer and strips whitespace and
// surrounding punctuation, so "Crisis." and " crisis\n" both become "crisis".
func NormalizeLabel(label string) string {
	return strings.TrimFunc(strings.ToLower(label), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}

// IsCrisisLabel reports whether a normalized classifier label flags a crisis.
func IsCrisisLabel(label string) bool {
	return label == CrisisLabel
}
