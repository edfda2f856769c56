// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/npmscout/pkg/types"
)

func makeTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{Index: i, Record: types.PartialRecord{"name": fmt.Sprintf("pkg-%d", i)}}
	}
	return tasks
}

func TestPartitionCoversAllTasksExactlyOnce(t *testing.T) {
	cases := []struct {
		n, workers int
	}{
		{0, 1}, {0, 4}, {1, 1}, {1, 4}, {3, 4}, {4, 4}, {10, 3}, {25, 4}, {100, 10},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("n=%d_w=%d", tc.n, tc.workers), func(t *testing.T) {
			tasks := makeTasks(tc.n)
			groups := partition(tasks, tc.workers)

			require.Len(t, groups, tc.workers)

			seen := make(map[int]int)
			total := 0
			for _, g := range groups {
				for _, task := range g {
					seen[task.Index]++
					total++
				}
			}
			assert.Equal(t, tc.n, total)
			for i := 0; i < tc.n; i++ {
				assert.Equal(t, 1, seen[i], "task %d should appear exactly once", i)
			}
		})
	}
}

func TestPartitionGroupsAreContiguous(t *testing.T) {
	groups := partition(makeTasks(10), 3)

	// 10/3 = 3 per group, remainder on the last.
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 3)
	assert.Len(t, groups[1], 3)
	assert.Len(t, groups[2], 4)

	next := 0
	for _, g := range groups {
		for _, task := range g {
			assert.Equal(t, next, task.Index)
			next++
		}
	}
}

func TestPartitionFewerTasksThanWorkers(t *testing.T) {
	groups := partition(makeTasks(2), 5)

	require.Len(t, groups, 5)
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	assert.Equal(t, 2, total)
}
