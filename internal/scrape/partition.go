// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

// partition splits tasks into workers contiguous, non-overlapping groups.
// Each group gets len(tasks)/workers tasks; the remainder goes to the last
// group. Valid for any task count and workers >= 1, including fewer tasks
// than workers (leading groups are then empty).
func partition(tasks []Task, workers int) [][]Task {
	if workers < 1 {
		workers = 1
	}
	groups := make([][]Task, workers)
	size := len(tasks) / workers
	for i := 0; i < workers; i++ {
		start := i * size
		end := start + size
		if i == workers-1 {
			end = len(tasks)
		}
		groups[i] = tasks[start:end]
	}
	return groups
}
