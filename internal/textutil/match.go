package textutil

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Config controls how similarity is blended and when a match is accepted.
// TokenWeight and EditWeight must sum to 1. Queries whose alphanumeric
// length is at most ShortQueryLength are held to ShortFloor instead of
// LongFloor.
type Config struct {
	TokenWeight      float64
	EditWeight       float64
	ShortQueryLength int
	ShortFloor       float64
	LongFloor        float64
}

// DefaultConfig returns the tuned defaults: token overlap weighted over
// edit distance, with a four character breakpoint between floors.
func DefaultConfig() Config {
	return Config{
		TokenWeight:      0.6,
		EditWeight:       0.4,
		ShortQueryLength: 4,
		ShortFloor:       0.30,
		LongFloor:        0.35,
	}
}

func (c Config) validate() error {
	if c.TokenWeight < 0 || c.EditWeight < 0 {
		return fmt.Errorf("similarity weights must not be negative")
	}
	if sum := c.TokenWeight + c.EditWeight; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("token and edit weights must sum to 1, got %.3f", sum)
	}
	if c.ShortQueryLength < 1 {
		return fmt.Errorf("short query length must be positive")
	}
	for name, floor := range map[string]float64{"short": c.ShortFloor, "long": c.LongFloor} {
		if floor < 0 || floor > 1 {
			return fmt.Errorf("%s floor must be between 0 and 1", name)
		}
	}
	return nil
}

// Matcher scores similarity between normalized titles.
type Matcher struct {
	cfg Config
}

// NewMatcher builds a Matcher, rejecting invalid configuration up front.
func NewMatcher(cfg Config) (*Matcher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Matcher{cfg: cfg}, nil
}

// Match is one accepted candidate from BestMatch.
type Match struct {
	Candidate string
	Index     int
	Score     float64
}

// Similarity blends token overlap and edit-distance ratio into one score
// in [0,1]. Identical non-empty inputs score 1; an empty side scores 0.
func (m *Matcher) Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	score := m.cfg.TokenWeight*Jaccard(Tokenize(a), Tokenize(b)) + m.cfg.EditWeight*EditRatio(a, b)
	return min(max(score, 0), 1)
}

// Floor returns the acceptance floor for a query. Short queries produce
// noisier scores, so they are held to the lower floor.
func (m *Matcher) Floor(query string) float64 {
	if alphanumericLength(query) <= m.cfg.ShortQueryLength {
		return m.cfg.ShortFloor
	}
	return m.cfg.LongFloor
}

// BestMatch linearly scans candidates and returns the highest scorer, if
// it clears the query's floor. Earlier candidates win score ties, so the
// result is deterministic for a fixed candidate order.
func (m *Matcher) BestMatch(query string, candidates []string) (Match, bool) {
	best := Match{Index: -1}
	for i, candidate := range candidates {
		score := m.Similarity(query, candidate)
		if best.Index < 0 || score > best.Score {
			best = Match{Candidate: candidate, Index: i, Score: score}
		}
	}
	if best.Index < 0 || best.Score < m.Floor(query) {
		return Match{}, false
	}
	return best, true
}

func alphanumericLength(value string) int {
	n := 0
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
