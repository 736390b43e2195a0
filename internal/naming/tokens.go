package naming

import "strings"

// Alias tables map the spellings found in release names to one canonical
// tag per token. Tags are grouped by dimension so ranking can compare
// resolution before source before codec.
var resolutionAliases = map[string]string{
	"8k":    "4320p",
	"4320p": "4320p",
	"4k":    "2160p",
	"uhd":   "2160p",
	"2160p": "2160p",
	"1080p": "1080p",
	"fhd":   "1080p",
	"1080i": "1080i",
	"720p":  "720p",
	"576p":  "576p",
	"480p":  "480p",
}

var sourceAliases = map[string]string{
	"remux":    "remux",
	"bluray":   "bluray",
	"brrip":    "bluray",
	"bdrip":    "bluray",
	"webdl":    "webdl",
	"webrip":   "webrip",
	"hdtv":     "hdtv",
	"pdtv":     "hdtv",
	"dvdrip":   "dvdrip",
	"dvdscr":   "dvdrip",
	"telesync": "ts",
	"ts":       "ts",
	"hdcam":    "cam",
	"camrip":   "cam",
	"cam":      "cam",
}

var codecAliases = map[string]string{
	"x264": "x264",
	"h264": "x264",
	"avc":  "x264",
	"x265": "x265",
	"h265": "x265",
	"hevc": "x265",
	"av1":  "av1",
	"xvid": "xvid",
	"divx": "divx",
}

// junkTokens are release noise stripped from titles without being reported
// as quality tags: cut markers, audio formats, and encoder flags.
var junkTokens = map[string]struct{}{
	"proper":     {},
	"repack":     {},
	"rerip":      {},
	"extended":   {},
	"unrated":    {},
	"uncut":      {},
	"limited":    {},
	"remastered": {},
	"internal":   {},
	"retail":     {},
	"imax":       {},
	"hdr":        {},
	"hdr10":      {},
	"sdr":        {},
	"10bit":      {},
	"8bit":       {},
	"atmos":      {},
	"truehd":     {},
	"dts":        {},
	"dd":         {},
	"ddp":        {},
	"eac3":       {},
	"ac3":        {},
	"aac":        {},
	"flac":       {},
	"mp3":        {},
	"multi":      {},
	"dual":       {},
	"subbed":     {},
	"dubbed":     {},
}

// pairAliases resolve two-word spellings left behind once separators become
// spaces ("web-dl" arrives here as "web dl"). An empty canonical tag means
// the pair is junk and only stripped.
var pairAliases = map[string]string{
	"web dl":       "webdl",
	"web rip":      "webrip",
	"blu ray":      "bluray",
	"dolby vision": "",
	"dolby atmos":  "",
	"dual audio":   "",
	"5 1":          "",
	"7 1":          "",
	"2 0":          "",
	"dd5 1":        "",
	"ddp5 1":       "",
	"dd7 1":        "",
	"ddp7 1":       "",
	"dd2 0":        "",
	"ddp2 0":       "",
	"dts5 1":       "",
	"aac2 0":       "",
}

var videoExtensions = map[string]struct{}{
	".mkv":  {},
	".mp4":  {},
	".avi":  {},
	".mov":  {},
	".wmv":  {},
	".flv":  {},
	".webm": {},
	".m4v":  {},
	".ts":   {},
	".m2ts": {},
	".mpg":  {},
	".mpeg": {},
	".vob":  {},
	".iso":  {},
}

// classifyToken resolves one lowercase token against the alias tables.
// It returns the canonical tag and whether the token should be dropped
// from the title.
func classifyToken(token string) (tag string, drop bool) {
	if canonical, ok := resolutionAliases[token]; ok {
		return canonical, true
	}
	if canonical, ok := sourceAliases[token]; ok {
		return canonical, true
	}
	if canonical, ok := codecAliases[token]; ok {
		return canonical, true
	}
	if _, ok := junkTokens[token]; ok {
		return "", true
	}
	return "", false
}

// stripTokens walks the space-separated name, removing quality and junk
// tokens and collecting canonical quality tags in first-seen order.
func stripTokens(name string) (string, []string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", nil
	}
	kept := make([]string, 0, len(fields))
	var tags []string
	seen := make(map[string]struct{})
	appendTag := func(tag string) {
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	for i := 0; i < len(fields); i++ {
		if i+1 < len(fields) {
			pair := fields[i] + " " + fields[i+1]
			if canonical, ok := pairAliases[pair]; ok {
				appendTag(canonical)
				i++
				continue
			}
		}
		tag, drop := classifyToken(fields[i])
		if drop {
			appendTag(tag)
			continue
		}
		kept = append(kept, fields[i])
	}
	return strings.Join(kept, " "), tags
}
