package duplicates

import (
	"sort"

	"shelfward/internal/media"
)

// Group is one set of files judged to be copies of the same logical item.
// Members always holds at least two records, sorted by path. Keeper is the
// member retained when the others are deleted; ReclaimableBytes is the total
// size of the non-keeper members.
type Group struct {
	Key              string
	Members          []media.Record
	Keeper           media.Record
	ReclaimableBytes int64
}

// TotalReclaimable sums the reclaimable bytes across groups.
func TotalReclaimable(groups []Group) int64 {
	var total int64
	for _, group := range groups {
		total += group.ReclaimableBytes
	}
	return total
}

func newGroup(members []media.Record) Group {
	keeper := selectKeeper(members)
	var total int64
	for _, member := range members {
		total += member.SizeBytes
	}
	sorted := make([]media.Record, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	return Group{
		Key:              keeper.CanonicalKey(),
		Members:          sorted,
		Keeper:           keeper,
		ReclaimableBytes: total - keeper.SizeBytes,
	}
}

// selectKeeper picks the member with the highest quality rank, breaking ties
// by larger size and then by smaller path.
func selectKeeper(members []media.Record) media.Record {
	keeper := members[0]
	for _, candidate := range members[1:] {
		if better(candidate, keeper) {
			keeper = candidate
		}
	}
	return keeper
}

func better(a, b media.Record) bool {
	if cmp := a.QualityRank().Compare(b.QualityRank()); cmp != 0 {
		return cmp > 0
	}
	if a.SizeBytes != b.SizeBytes {
		return a.SizeBytes > b.SizeBytes
	}
	return a.Path < b.Path
}
