package classification

import (
	"strings"

	"shelfward/internal/media"
	"shelfward/internal/naming"
)

// defaultConfidence is assigned when no rule matches. It sits below the
// usual misplacement floor, so a bare guess never drives a move suggestion.
const defaultConfidence = 0.5

// rule is one entry in the ordered decision table. The first rule whose
// predicate matches wins; later rules are never consulted.
type rule struct {
	name       string
	category   media.Category
	confidence float64
	matches    func(media.Record) bool
}

// ruleTable is evaluated top to bottom. Documentary and stand-up rules
// precede the TV rules on purpose: a documentary series still carries
// season numbering, and a comedy special often carries a year, so the more
// specific vocabulary has to win before the structural patterns fire.
var ruleTable = []rule{
	{
		name:       "documentary marker",
		category:   media.CategoryDocumentary,
		confidence: 0.95,
		matches: func(r media.Record) bool {
			return titleHasPhrase(r.ParsedTitle, "documentary", "docu", "docuseries")
		},
	},
	{
		name:       "documentary network",
		category:   media.CategoryDocumentary,
		confidence: 0.90,
		matches: func(r media.Record) bool {
			return titleHasPhrase(r.ParsedTitle,
				"bbc", "pbs", "nat geo", "national geographic", "history channel", "discovery channel")
		},
	},
	{
		name:       "documentary strand",
		category:   media.CategoryDocumentary,
		confidence: 0.85,
		matches: func(r media.Record) bool {
			return titleHasPhrase(r.ParsedTitle, "nova", "frontline", "horizon", "panorama")
		},
	},
	{
		name:       "standup marker",
		category:   media.CategoryStandup,
		confidence: 0.95,
		matches: func(r media.Record) bool {
			return titleHasPhrase(r.ParsedTitle, "standup", "stand up", "comedy special")
		},
	},
	{
		name:       "comedian name",
		category:   media.CategoryStandup,
		confidence: 0.90,
		matches: func(r media.Record) bool {
			// Episode numbering vetoes the name match: "Chappelle's Show
			// S02E01" is a TV episode, not a special.
			return !r.HasEpisode() && titleHasPhrase(r.ParsedTitle, comedianNames...)
		},
	},
	{
		name:       "standup venue",
		category:   media.CategoryStandup,
		confidence: 0.80,
		matches: func(r media.Record) bool {
			return !r.HasEpisode() && titleHasPhrase(r.ParsedTitle,
				"live at", "live from", "sticks and stones", "killed them softly", "delirious")
		},
	},
	{
		name:       "episode numbering",
		category:   media.CategoryTV,
		confidence: 0.95,
		matches: func(r media.Record) bool {
			return r.EpisodeStyle == naming.StyleSxxEyy || r.EpisodeStyle == naming.StyleWords
		},
	},
	{
		name:       "season folder",
		category:   media.CategoryTV,
		confidence: 0.90,
		matches: func(r media.Record) bool {
			return r.EpisodeStyle == naming.StyleSeasonOnly
		},
	},
	{
		name:       "episode shorthand",
		category:   media.CategoryTV,
		confidence: 0.85,
		matches: func(r media.Record) bool {
			return r.EpisodeStyle == naming.StyleNxM
		},
	},
	{
		name:       "hdtv source",
		category:   media.CategoryTV,
		confidence: 0.80,
		matches: func(r media.Record) bool {
			return hasQualityTag(r, "hdtv")
		},
	},
	{
		name:       "year and quality",
		category:   media.CategoryMovie,
		confidence: 0.95,
		matches: func(r media.Record) bool {
			return r.ParsedYear > 0 && len(r.QualityTags) > 0
		},
	},
	{
		name:       "year marker",
		category:   media.CategoryMovie,
		confidence: 0.85,
		matches: func(r media.Record) bool {
			return r.ParsedYear > 0
		},
	},
	{
		name:       "quality markers",
		category:   media.CategoryMovie,
		confidence: 0.80,
		matches: func(r media.Record) bool {
			return len(r.QualityTags) > 0
		},
	},
}

// comedianNames are matched as whole phrases against the normalized title.
// Bare surnames are listed only when they are unlikely to collide with
// ordinary title words.
var comedianNames = []string{
	"dave chappelle",
	"chappelle",
	"george carlin",
	"carlin",
	"chris rock",
	"bill burr",
	"eddie murphy",
	"kevin hart",
	"john mulaney",
	"ali wong",
	"hannah gadsby",
	"ricky gervais",
	"jim gaffigan",
	"anthony jeselnik",
}

// evalRules walks the decision table and returns the first match, or the
// low-confidence movie default when nothing matches. It never fails.
func evalRules(record media.Record) Result {
	for _, rule := range ruleTable {
		if rule.matches(record) {
			return Result{
				Category:   rule.category,
				Confidence: rule.confidence,
				Source:     SourceRule,
				Reasoning:  "matched " + rule.name,
			}
		}
	}
	return Result{
		Category:   media.CategoryMovie,
		Confidence: defaultConfidence,
		Source:     SourceRule,
		Reasoning:  "no markers matched",
	}
}

// titleHasPhrase reports whether any phrase appears in the normalized title
// on token boundaries. Titles are already lowercase and single-spaced, so
// padding both sides with a space makes Contains a whole-word match.
func titleHasPhrase(title string, phrases ...string) bool {
	padded := " " + title + " "
	for _, phrase := range phrases {
		if strings.Contains(padded, " "+phrase+" ") {
			return true
		}
	}
	return false
}

func hasQualityTag(r media.Record, tag media.QualityTag) bool {
	for _, t := range r.QualityTags {
		if t == tag {
			return true
		}
	}
	return false
}
