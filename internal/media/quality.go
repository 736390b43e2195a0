package media

// QualityTag is a canonical quality token extracted from a filename, such as
// "2160p", "bluray", or "x265". Tags compare by a fixed total order so keeper
// selection is deterministic across runs.
type QualityTag string

// Rank positions within each dimension. Zero means "absent", which always
// loses to any recognized tag in that dimension.
var (
	resolutionRank = map[QualityTag]int{
		"4320p": 6,
		"2160p": 5,
		"1080p": 4,
		"1080i": 3,
		"720p":  2,
		"576p":  1,
		"480p":  1,
	}
	sourceRank = map[QualityTag]int{
		"remux":  7,
		"bluray": 6,
		"webdl":  5,
		"webrip": 4,
		"hdtv":   3,
		"dvdrip": 2,
		"ts":     1,
		"cam":    1,
	}
	codecRank = map[QualityTag]int{
		"av1":  4,
		"x265": 3,
		"x264": 2,
		"xvid": 1,
		"divx": 1,
	}
)

// QualityRank is the composite ordering key for a tag set: resolution first,
// then source, then codec. Ties in one dimension fall through to the next.
type QualityRank struct {
	Resolution int
	Source     int
	Codec      int
}

// RankQuality reduces a tag set to its composite rank, taking the best tag
// seen in each dimension.
func RankQuality(tags []QualityTag) QualityRank {
	var rank QualityRank
	for _, tag := range tags {
		if r, ok := resolutionRank[tag]; ok && r > rank.Resolution {
			rank.Resolution = r
		}
		if r, ok := sourceRank[tag]; ok && r > rank.Source {
			rank.Source = r
		}
		if r, ok := codecRank[tag]; ok && r > rank.Codec {
			rank.Codec = r
		}
	}
	return rank
}

// Compare returns -1, 0, or 1 as r orders before, equal to, or after other.
func (r QualityRank) Compare(other QualityRank) int {
	if r.Resolution != other.Resolution {
		return sign(r.Resolution - other.Resolution)
	}
	if r.Source != other.Source {
		return sign(r.Source - other.Source)
	}
	if r.Codec != other.Codec {
		return sign(r.Codec - other.Codec)
	}
	return 0
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
