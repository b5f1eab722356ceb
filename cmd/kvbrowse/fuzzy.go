// Copyright 2026 The filekv Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"sort"

	"github.com/charmbracelet/bubbles/list"
	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// fzfSlab is scratch space fzf's matcher reuses across calls instead of
// allocating fresh buffers per keystroke, threaded through the same way
// lib/ticketui/fuzzy.go threads a *util.Slab into every fuzzyMatch call.
var fzfSlab = util.MakeSlab(16*1024, 2*1024)

type fuzzyRank struct {
	rank  list.Rank
	score int
}

// fuzzyFilter ranks targets against term with fzf's own matching
// algorithm rather than bubbles/list's bundled default filter. This is
// the same dependency lib/ticketui/fuzzy.go delegates to for filtering
// a list by typed input, and it's the one genuinely list-filtering
// concern this tool has.
func fuzzyFilter(term string, targets []string) []list.Rank {
	pattern := []rune(term)

	scored := make([]fuzzyRank, 0, len(targets))
	for i, target := range targets {
		chars := util.RunesToChars([]rune(target))
		result, pos := algo.FuzzyMatchV2(false, true, true, &chars, pattern, true, fzfSlab)
		if result.Start == -1 {
			continue
		}

		var matched []int
		if pos != nil {
			matched = *pos
			sort.Ints(matched)
		}
		scored = append(scored, fuzzyRank{
			rank:  list.Rank{Index: i, MatchedIndexes: matched},
			score: result.Score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	ranks := make([]list.Rank, len(scored))
	for i, s := range scored {
		ranks[i] = s.rank
	}
	return ranks
}
