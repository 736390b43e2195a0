package classification

import (
	"testing"

	"shelfward/internal/media"
	"shelfward/internal/naming"
)

func ruleRecord(t *testing.T, name string) media.Record {
	t.Helper()
	parsed := naming.Normalize(name)
	record := media.Record{
		Path:          "/library/incoming/" + name,
		RawName:       name,
		ParsedTitle:   parsed.Title,
		ParsedYear:    parsed.Year,
		ParsedSeason:  parsed.Season,
		ParsedEpisode: parsed.Episode,
		EpisodeEnd:    parsed.EpisodeEnd,
		EpisodeStyle:  parsed.EpisodeStyle,
		PartMarker:    parsed.PartMarker,
	}
	for _, tag := range parsed.QualityTags {
		record.QualityTags = append(record.QualityTags, media.QualityTag(tag))
	}
	return record
}

func TestEvalRules(t *testing.T) {
	tests := []struct {
		name           string
		file           string
		wantCategory   media.Category
		wantConfidence float64
	}{
		{"explicit documentary marker", "Planet.Earth.Documentary.2006.1080p.mkv", media.CategoryDocumentary, 0.95},
		{"documentary network", "BBC.Blue.Planet.II.2017.mkv", media.CategoryDocumentary, 0.90},
		{"documentary strand", "Frontline.The.Facebook.Dilemma.mkv", media.CategoryDocumentary, 0.85},
		{"documentary beats episode numbering", "Nat.Geo.Wild.Yellowstone.S01E02.720p.mkv", media.CategoryDocumentary, 0.90},
		{"explicit standup marker", "Tom.Segura.Standup.2023.mkv", media.CategoryStandup, 0.95},
		{"hyphenated standup marker", "Nate.Bargatze.Stand-Up.Hours.mkv", media.CategoryStandup, 0.95},
		{"comedian name", "Dave.Chappelle.Sticks.and.Stones.2019.mkv", media.CategoryStandup, 0.90},
		{"comedian surname alone", "Chappelle.Equanimity.2017.1080p.mkv", media.CategoryStandup, 0.90},
		{"venue marker", "Live.at.the.Apollo.Special.mkv", media.CategoryStandup, 0.80},
		{"episode numbering", "Severance.S02E03.1080p.WEB-DL.mkv", media.CategoryTV, 0.95},
		{"worded episode", "The Wire Season 3 Episode 11.avi", media.CategoryTV, 0.95},
		{"season only", "Deadwood.Season.2.DVDRip.avi", media.CategoryTV, 0.90},
		{"episode shorthand", "Firefly 1x09.mkv", media.CategoryTV, 0.85},
		{"hdtv source", "Late.Show.2024.01.15.HDTV.mkv", media.CategoryTV, 0.80},
		{"episode numbering vetoes comedian name", "Chappelle.Show.S02E01.DVDRip.avi", media.CategoryTV, 0.95},
		{"year and quality", "Heat.1995.1080p.BluRay.x264.mkv", media.CategoryMovie, 0.95},
		{"year only", "Heat.1995.mkv", media.CategoryMovie, 0.85},
		{"quality only", "Some.Film.720p.WEBRip.mkv", media.CategoryMovie, 0.80},
		{"no markers", "Holiday Footage.mp4", media.CategoryMovie, defaultConfidence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evalRules(ruleRecord(t, tt.file))
			if got.Category != tt.wantCategory {
				t.Errorf("category = %q, want %q (reasoning %q)", got.Category, tt.wantCategory, got.Reasoning)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("confidence = %v, want %v (reasoning %q)", got.Confidence, tt.wantConfidence, got.Reasoning)
			}
			if got.Source != SourceRule {
				t.Errorf("source = %q, want %q", got.Source, SourceRule)
			}
			if got.Reasoning == "" {
				t.Error("expected non-empty reasoning")
			}
		})
	}
}

// A comedy special misfiled under a TV root must clear the default
// misplacement floor on rules alone, with no AI or lookup tier configured.
func TestComedySpecialUnderTVRootClearsFloor(t *testing.T) {
	record := ruleRecord(t, "Dave.Chappelle.Sticks.and.Stones.2019.mkv")
	record.Path = "/library/tv/Dave.Chappelle.Sticks.and.Stones.2019.mkv"
	record.CurrentCategory = media.CategoryTV

	got := evalRules(record)
	if got.Category != media.CategoryStandup {
		t.Fatalf("category = %q, want %q", got.Category, media.CategoryStandup)
	}
	if got.Confidence < 0.8 {
		t.Fatalf("confidence = %v, want >= 0.8", got.Confidence)
	}
}

func TestRuleTableConfidencesAreOrderedWithinCategory(t *testing.T) {
	last := map[media.Category]float64{}
	for _, rule := range ruleTable {
		if rule.confidence <= defaultConfidence {
			t.Errorf("rule %q confidence %v must exceed the default %v", rule.name, rule.confidence, defaultConfidence)
		}
		if prev, ok := last[rule.category]; ok && rule.confidence > prev {
			t.Errorf("rule %q confidence %v ranks above an earlier %s rule (%v)", rule.name, rule.confidence, rule.category, prev)
		}
		last[rule.category] = rule.confidence
	}
}
