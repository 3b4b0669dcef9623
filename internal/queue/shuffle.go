package queue

// ShuffleItem is one pending queue entry as seen by the fairness scheduler:
// its id and the singers assigned to it. An empty singer set means the item
// belongs to its own synthetic unassigned group, so two unassigned items never
// count against each other's turn.
type ShuffleItem struct {
	ID      string
	Singers []string
}

// unassignedPrefix keys the per-item pseudo-singer for items with no singers.
// The prefix cannot collide with uuid singer keys.
const unassignedPrefix = "~unassigned:"

// FairOrder computes a total order over the pending items that approximates
// round-robin turn-taking across singers. It is a pure function with no I/O:
// the same input list always yields the same output order.
//
// Selection is greedy. Each round picks the remaining item minimizing, in
// order:
//  1. the maximum placed-count across its singers, so a duet waits until its
//     slowest singer is due and cannot jump the queue on the strength of one
//     already-satisfied singer;
//  2. the minimum placed-count across its singers;
//  3. the earliest first-appearance index among its singers;
//  4. the item's original position in the input.
//
// O(n^2 * s) for n items with s singers each; fine for real queues.
func FairOrder(items []ShuffleItem) []string {
	if len(items) == 0 {
		return nil
	}

	// Singer keys per item, substituting the per-item pseudo-singer for
	// unassigned entries.
	singerKeys := make([][]string, len(items))
	for i, item := range items {
		if len(item.Singers) == 0 {
			singerKeys[i] = []string{unassignedPrefix + item.ID}
		} else {
			singerKeys[i] = item.Singers
		}
	}

	// First-appearance index per singer is the stable tie-break key.
	firstSeen := make(map[string]int)
	for i, keys := range singerKeys {
		for _, key := range keys {
			if _, ok := firstSeen[key]; !ok {
				firstSeen[key] = i
			}
		}
	}

	placed := make(map[string]int, len(firstSeen))
	remaining := make([]int, len(items))
	for i := range items {
		remaining[i] = i
	}

	order := make([]string, 0, len(items))
	for len(remaining) > 0 {
		bestIdx := 0
		bestMax, bestMin, bestSeen := rankItem(singerKeys[remaining[0]], placed, firstSeen)

		for i := 1; i < len(remaining); i++ {
			maxCount, minCount, seen := rankItem(singerKeys[remaining[i]], placed, firstSeen)
			if maxCount < bestMax ||
				(maxCount == bestMax && minCount < bestMin) ||
				(maxCount == bestMax && minCount == bestMin && seen < bestSeen) {
				bestIdx = i
				bestMax, bestMin, bestSeen = maxCount, minCount, seen
			}
		}

		selected := remaining[bestIdx]
		order = append(order, items[selected].ID)
		for _, key := range singerKeys[selected] {
			placed[key]++
		}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return order
}

// rankItem computes the three comparison keys for one item: the max and min
// placed-counts over its singers and the earliest first-appearance index
func rankItem(keys []string, placed map[string]int, firstSeen map[string]int) (maxCount, minCount, earliestSeen int) {
	maxCount = placed[keys[0]]
	minCount = maxCount
	earliestSeen = firstSeen[keys[0]]

	for _, key := range keys[1:] {
		count := placed[key]
		if count > maxCount {
			maxCount = count
		}
		if count < minCount {
			minCount = count
		}
		if seen := firstSeen[key]; seen < earliestSeen {
			earliestSeen = seen
		}
	}
	return maxCount, minCount, earliestSeen
}
