package media

import (
	"fmt"
	"strings"
)

// Record describes one scanned media file. It is immutable after the scanner
// constructs it; analyses derive new values and never write back.
type Record struct {
	Path            string
	SizeBytes       int64
	CurrentCategory Category
	RawName         string

	// Parsed metadata from the name normalizer. Zero values mean "absent".
	ParsedTitle   string
	ParsedYear    int
	ParsedSeason  int
	ParsedEpisode int
	EpisodeEnd    int
	EpisodeStyle  string
	PartMarker    string
	QualityTags   []QualityTag
}

// CanonicalKey derives the logical-identity string for duplicate detection:
// normalized title, plus year and season/episode when present. Two records
// with equal keys refer to the same logical media unit.
func (r Record) CanonicalKey() string {
	var b strings.Builder
	b.WriteString(r.ParsedTitle)
	if r.ParsedYear > 0 {
		fmt.Fprintf(&b, "|%d", r.ParsedYear)
	}
	if r.ParsedSeason > 0 || r.ParsedEpisode > 0 {
		fmt.Fprintf(&b, "|s%02de%02d", r.ParsedSeason, r.ParsedEpisode)
		if r.EpisodeEnd > r.ParsedEpisode {
			fmt.Fprintf(&b, "-e%02d", r.EpisodeEnd)
		}
	}
	return b.String()
}

// HasEpisode reports whether the record carries season/episode numbering.
func (r Record) HasEpisode() bool {
	return r.ParsedSeason > 0 || r.ParsedEpisode > 0
}

// QualityRank returns the composite quality ordering key for the record.
func (r Record) QualityRank() QualityRank {
	return RankQuality(r.QualityTags)
}

// QualityLabel renders the tag set for display, e.g. "1080p bluray x264".
func (r Record) QualityLabel() string {
	if len(r.QualityTags) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.QualityTags))
	for _, tag := range r.QualityTags {
		parts = append(parts, string(tag))
	}
	return strings.Join(parts, " ")
}
