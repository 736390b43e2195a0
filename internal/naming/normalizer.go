package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Episode styles record which naming convention carried the season and
// episode numbers. Classification weighs structured styles higher than
// loose ones.
const (
	StyleSxxEyy     = "sxxeyy"
	StyleNxM        = "nxm"
	StyleWords      = "words"
	StyleSeasonOnly = "season"
)

// ParsedName holds everything extracted from one raw file or folder name.
type ParsedName struct {
	Title        string
	Year         int
	Season       int
	Episode      int
	EpisodeEnd   int
	EpisodeStyle string
	PartMarker   string
	QualityTags  []string
}

const minYear = 1900

var (
	bracketYearPattern = regexp.MustCompile(`[\[(](\d{4})[\])]`)
	bareYearPattern    = regexp.MustCompile(`\b(\d{4})\b`)
	bracketPattern     = regexp.MustCompile(`\[[^\]]*\]|\{[^}]*\}`)
	trailingGroup      = regexp.MustCompile(`-\w+$`)
	episodeSuffix      = regexp.MustCompile(`^e?\d{1,3}$`)

	sxxeyyPattern     = regexp.MustCompile(`\bs(\d{1,2})\s*e(\d{1,3})(?:\s*e(\d{1,3}))?\b`)
	nxmPattern        = regexp.MustCompile(`\b(\d{1,2})x(\d{2,3})\b`)
	wordsPattern      = regexp.MustCompile(`\bseason\s*(\d{1,2})\s*episode\s*(\d{1,3})\b`)
	seasonOnlyPattern = regexp.MustCompile(`\bseason\s*(\d{1,2})\b`)
	partMarkerPattern = regexp.MustCompile(`\b(cd|disc|disk|dvd|pt|part)\s*(\d)\b`)
)

var separatorReplacer = strings.NewReplacer(".", " ", "_", " ", "-", " ")

// Normalize parses a raw file or folder name into a comparison title and
// the metadata embedded in it. It never fails: input it cannot make sense
// of comes back as a lowercase, whitespace-collapsed title with empty
// metadata.
func Normalize(raw string) ParsedName {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ParsedName{}
	}
	name = stripExtension(name)
	name = foldDiacritics(name)
	name = strings.ToLower(name)

	// Scene-style names carry the release group after a final dash. Only
	// dot-separated names use that convention; stripping it elsewhere would
	// eat hyphenated titles.
	if strings.Contains(name, ".") {
		name = stripTrailingGroup(name)
	}

	parsed := ParsedName{}
	name, parsed.Year = extractBracketYear(name)
	name, bracketTags := stripBracketGroups(name)
	name = separatorReplacer.Replace(name)

	var tags []string
	name, tags = stripTokens(name)
	parsed.QualityTags = mergeTags(tags, bracketTags)
	if parsed.Year == 0 {
		name, parsed.Year = extractBareYear(name)
	}
	name = extractEpisode(name, &parsed)
	name, parsed.PartMarker = extractPartMarker(name)
	parsed.Title = collapseTitle(name)
	return parsed
}

func stripExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := videoExtensions[ext]; ok {
		return name[:len(name)-len(ext)]
	}
	return name
}

// stripTrailingGroup removes a dash-attached release group suffix.
// Episode spans like "S01E01-E03" end in the same shape, so bare or
// e-prefixed numbers survive.
func stripTrailingGroup(name string) string {
	loc := trailingGroup.FindStringIndex(name)
	if loc == nil {
		return name
	}
	if episodeSuffix.MatchString(name[loc[0]+1 : loc[1]]) {
		return name
	}
	return name[:loc[0]] + " "
}

func foldDiacritics(value string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, value)
	if err != nil {
		return value
	}
	return folded
}

func maxYear() int {
	return time.Now().Year() + 1
}

// stripBracketGroups drops bracketed and braced release-group segments.
// Quality tokens hiding inside a group ("[1080p]") are still harvested
// before the group goes.
func stripBracketGroups(name string) (string, []string) {
	var tags []string
	cleaned := bracketPattern.ReplaceAllStringFunc(name, func(group string) string {
		inner := separatorReplacer.Replace(group[1 : len(group)-1])
		for _, token := range strings.Fields(inner) {
			if tag, drop := classifyToken(token); drop && tag != "" {
				tags = append(tags, tag)
			}
		}
		return " "
	})
	return cleaned, tags
}

func mergeTags(tags, extra []string) []string {
	if len(extra) == 0 {
		return tags
	}
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		seen[tag] = struct{}{}
	}
	for _, tag := range extra {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func extractBracketYear(name string) (string, int) {
	match := bracketYearPattern.FindStringSubmatchIndex(name)
	if match == nil {
		return name, 0
	}
	year, err := strconv.Atoi(name[match[2]:match[3]])
	if err != nil || year < minYear || year > maxYear() {
		return name, 0
	}
	return name[:match[0]] + " " + name[match[1]:], year
}

// extractBareYear picks the last in-range 4-digit token so titles that
// start with a year ("2001 a space odyssey 1968") keep their leading
// number and lose the release year.
func extractBareYear(name string) (string, int) {
	matches := bareYearPattern.FindAllStringSubmatchIndex(name, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		match := matches[i]
		year, err := strconv.Atoi(name[match[2]:match[3]])
		if err != nil || year < minYear || year > maxYear() {
			continue
		}
		return name[:match[0]] + " " + name[match[1]:], year
	}
	return name, 0
}

// extractEpisode tries each accepted convention in priority order; the
// first one that matches wins. Everything after the marker is the
// per-episode title and is dropped, so differently named copies of the
// same episode still normalize to the same show title.
func extractEpisode(name string, parsed *ParsedName) string {
	if match := sxxeyyPattern.FindStringSubmatchIndex(name); match != nil {
		parsed.Season = atoiAt(name, match, 1)
		parsed.Episode = atoiAt(name, match, 2)
		if match[6] >= 0 {
			if end := atoiAt(name, match, 3); end > parsed.Episode {
				parsed.EpisodeEnd = end
			}
		}
		parsed.EpisodeStyle = StyleSxxEyy
		return cutAtMarker(name, match)
	}
	if match := nxmPattern.FindStringSubmatchIndex(name); match != nil {
		parsed.Season = atoiAt(name, match, 1)
		parsed.Episode = atoiAt(name, match, 2)
		parsed.EpisodeStyle = StyleNxM
		return cutAtMarker(name, match)
	}
	if match := wordsPattern.FindStringSubmatchIndex(name); match != nil {
		parsed.Season = atoiAt(name, match, 1)
		parsed.Episode = atoiAt(name, match, 2)
		parsed.EpisodeStyle = StyleWords
		return cutAtMarker(name, match)
	}
	if match := seasonOnlyPattern.FindStringSubmatchIndex(name); match != nil {
		parsed.Season = atoiAt(name, match, 1)
		parsed.EpisodeStyle = StyleSeasonOnly
		return cutAtMarker(name, match)
	}
	return name
}

// cutAtMarker keeps the text before an episode marker. When the marker
// opens the name there is no show prefix, so the tail is the only title
// material available.
func cutAtMarker(name string, match []int) string {
	prefix := strings.TrimSpace(name[:match[0]])
	if prefix != "" {
		return prefix
	}
	return name[match[1]:]
}

func extractPartMarker(name string) (string, string) {
	match := partMarkerPattern.FindStringSubmatchIndex(name)
	if match == nil {
		return name, ""
	}
	marker := name[match[2]:match[3]] + name[match[4]:match[5]]
	return cutMatch(name, match), marker
}

func atoiAt(name string, match []int, group int) int {
	start, end := match[2*group], match[2*group+1]
	if start < 0 {
		return 0
	}
	n, err := strconv.Atoi(name[start:end])
	if err != nil {
		return 0
	}
	return n
}

func cutMatch(name string, match []int) string {
	return name[:match[0]] + " " + name[match[1]:]
}

// collapseTitle keeps letters and digits, folds whitespace runs into a
// single space, and drops remaining punctuation outright so "don't"
// becomes "dont" rather than growing a stray token.
func collapseTitle(name string) string {
	var b strings.Builder
	prevSpace := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r):
			if !prevSpace && b.Len() > 0 {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Describe renders the parsed metadata for logs and reports.
func (p ParsedName) Describe() string {
	parts := []string{p.Title}
	if p.Year > 0 {
		parts = append(parts, strconv.Itoa(p.Year))
	}
	if p.Season > 0 || p.Episode > 0 {
		episode := fmt.Sprintf("s%02de%02d", p.Season, p.Episode)
		if p.EpisodeEnd > p.Episode {
			episode += fmt.Sprintf("-e%02d", p.EpisodeEnd)
		}
		parts = append(parts, episode)
	}
	if len(p.QualityTags) > 0 {
		parts = append(parts, strings.Join(p.QualityTags, " "))
	}
	return strings.Join(parts, " ")
}
