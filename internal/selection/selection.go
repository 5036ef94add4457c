// Package selection picks the leaves worth expanding under a fixed budget.
//
// Every branch that has a leaf and fits in the budget gets one. The rest of
// the budget goes to branches in proportion to their volume and importance.
// Anything left over is filled by score.
package selection

import (
	"sort"

	"github.com/dgallion1/mindgest/internal/budget"
	"github.com/dgallion1/mindgest/internal/outline"
)

// Weights are the scoring constants.
type Weights struct {
	TopicDepth    float64 // leaf directly under a topic
	SubtopicDepth float64 // leaf under a subsection
	DeepDepth     float64 // anything else, including leaves with no topic

	ImportancePerPoint float64
	DefaultImportance  int
	VolumePerPercent   float64

	PositionBonus  float64 // added when line % PositionPeriod < PositionWindow
	PositionPeriod int
	PositionWindow int

	MinPerBranch int
	MaxPerBranch int
}

// DefaultWeights returns the production constants.
func DefaultWeights() Weights {
	return Weights{
		TopicDepth:         100,
		SubtopicDepth:      50,
		DeepDepth:          25,
		ImportancePerPoint: 15,
		DefaultImportance:  5,
		VolumePerPercent:   1,
		PositionBonus:      20,
		PositionPeriod:     100,
		PositionWindow:     30,
		MinPerBranch:       1,
		MaxPerBranch:       10,
	}
}

// Result is the outcome of Select.
type Result struct {
	Leaves   []outline.Leaf  // sorted by line
	Branches map[string]bool // branches that received at least one leaf
}

// Selector ranks and picks leaves.
type Selector struct {
	W     Weights
	Quota budget.Weights
}

// New returns a Selector with the default constants.
func New() *Selector {
	return &Selector{W: DefaultWeights(), Quota: budget.DefaultWeights()}
}

// Score rates a leaf with the default constants.
func Score(leaf outline.Leaf, volumes map[string]float64, importance map[string]int) float64 {
	return New().Score(leaf, volumes, importance)
}

// Select picks at most limit leaves with the default constants.
func Select(leaves []outline.Leaf, limit int, volumes map[string]float64, importance map[string]int) Result {
	return New().Select(leaves, limit, volumes, importance)
}

// Score rates a leaf. Shallow leaves of voluminous, important topics near
// the top of a hundred-line window score highest.
func (s *Selector) Score(leaf outline.Leaf, volumes map[string]float64, importance map[string]int) float64 {
	var score float64
	switch len(leaf.Context) {
	case 1:
		score = s.W.TopicDepth
	case 2:
		score = s.W.SubtopicDepth
	default:
		score = s.W.DeepDepth
	}
	if len(leaf.Context) == 0 {
		return score
	}

	topic := leaf.Context[0]
	imp, ok := importance[topic]
	if !ok {
		imp = s.W.DefaultImportance
	}
	score += float64(imp) * s.W.ImportancePerPoint
	score += volumes[topic] * s.W.VolumePerPercent
	if s.W.PositionPeriod > 0 && leaf.Line%s.W.PositionPeriod < s.W.PositionWindow {
		score += s.W.PositionBonus
	}
	return score
}

type candidate struct {
	leaf  outline.Leaf
	score float64
	order int
}

// byScore sorts candidates by descending score, ties by input order.
func byScore(c []candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].score != c[j].score {
			return c[i].score > c[j].score
		}
		return c[i].order < c[j].order
	})
}

// Select picks at most limit leaves. When every leaf fits, all of them are
// returned.
func (s *Selector) Select(leaves []outline.Leaf, limit int, volumes map[string]float64, importance map[string]int) Result {
	res := Result{Branches: make(map[string]bool)}
	if len(leaves) <= limit {
		res.Leaves = append([]outline.Leaf(nil), leaves...)
		for _, l := range leaves {
			res.Branches[l.Branch()] = true
		}
		sortByLine(res.Leaves)
		return res
	}
	if limit <= 0 {
		return res
	}

	// Group by branch in discovery order.
	var order []string
	byBranch := make(map[string][]candidate)
	all := make([]candidate, len(leaves))
	for i, l := range leaves {
		c := candidate{leaf: l, score: s.Score(l, volumes, importance), order: i}
		all[i] = c
		b := l.Branch()
		if _, ok := byBranch[b]; !ok {
			order = append(order, b)
		}
		byBranch[b] = append(byBranch[b], c)
	}
	for _, b := range order {
		byScore(byBranch[b])
	}

	impOf := func(b string) int {
		if v, ok := importance[b]; ok {
			return v
		}
		return s.W.DefaultImportance
	}

	var totalVolume, totalImportance float64
	for _, b := range order {
		totalVolume += volumes[b]
		totalImportance += float64(impOf(b))
	}
	if totalVolume == 0 {
		totalVolume = 100
	}
	if totalImportance == 0 {
		totalImportance = float64(s.W.DefaultImportance * len(order))
	}

	selected := make(map[int]bool) // by input order
	count := make(map[string]int)
	var touched []string
	remaining := limit

	take := func(b string) bool {
		for _, c := range byBranch[b] {
			if !selected[c.order] {
				selected[c.order] = true
				count[b]++
				remaining--
				return true
			}
		}
		return false
	}

	// Phase 1: fairness floor.
	for _, b := range order {
		if remaining <= 0 {
			break
		}
		if take(b) {
			touched = append(touched, b)
			res.Branches[b] = true
		}
	}

	// Phase 2: proportional fill.
	if remaining > 0 && len(touched) > 0 {
		pool := remaining + len(touched)
		quota := make(map[string]int, len(touched))
		for _, b := range touched {
			vol := volumes[b]
			if vol == 0 {
				vol = 100 / float64(len(touched))
			}
			quota[b] = s.Quota.BranchQuota(budget.BranchShare{
				Volume:          vol,
				Importance:      impOf(b),
				TotalVolume:     totalVolume,
				TotalImportance: totalImportance,
				Pool:            pool,
				Branches:        len(touched),
				Min:             s.W.MinPerBranch,
				Max:             s.W.MaxPerBranch,
			})
		}

		maxRounds := remaining * 2
		for round := 0; remaining > 0 && round < maxRounds; round++ {
			added := false
			for _, b := range touched {
				if remaining <= 0 {
					break
				}
				if count[b] >= quota[b] || count[b] >= s.W.MaxPerBranch {
					continue
				}
				if take(b) {
					added = true
				}
			}
			if !added {
				break
			}
		}
	}

	// Phase 3: drain the budget by score.
	if remaining > 0 {
		var rest []candidate
		for _, c := range all {
			if selected[c.order] {
				continue
			}
			if len(c.leaf.Context) > 0 && count[c.leaf.Branch()] >= s.W.MaxPerBranch {
				continue
			}
			rest = append(rest, c)
		}
		byScore(rest)
		if len(rest) > remaining {
			rest = rest[:remaining]
		}
		for _, c := range rest {
			selected[c.order] = true
		}
	}

	for _, c := range all {
		if selected[c.order] {
			res.Leaves = append(res.Leaves, c.leaf)
		}
	}
	sortByLine(res.Leaves)
	return res
}

func sortByLine(leaves []outline.Leaf) {
	sort.SliceStable(leaves, func(i, j int) bool { return leaves[i].Line < leaves[j].Line })
}
