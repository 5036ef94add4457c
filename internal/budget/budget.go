// Package budget estimates how much of a document each topic covers and turns
// volume and importance into bounded quotas.
package budget

import (
	"fmt"
	"strings"

	"github.com/dgallion1/mindgest/internal/retrieval"
)

// DetailLevel controls how many subsections the outline builder asks for.
type DetailLevel string

const (
	DetailLow    DetailLevel = "low"
	DetailMedium DetailLevel = "medium"
	DetailHigh   DetailLevel = "high"
)

// ParseDetailLevel accepts low, medium or high (case-insensitive).
func ParseDetailLevel(s string) (DetailLevel, error) {
	switch DetailLevel(strings.ToLower(strings.TrimSpace(s))) {
	case DetailLow:
		return DetailLow, nil
	case DetailMedium, "":
		return DetailMedium, nil
	case DetailHigh:
		return DetailHigh, nil
	}
	return "", fmt.Errorf("unknown detail level %q (want low, medium or high)", s)
}

// Band maps a minimum volume percentage to a base subsection count.
type Band struct {
	MinVolume float64
	Base      int
}

// Weights are the empirically chosen constants of the quota formulas.
type Weights struct {
	VolumeTopN int // nearest blocks counted toward a topic's volume

	Bands       []Band // descending MinVolume; last band is the catch-all
	DetailMult  map[DetailLevel]float64
	MaxSubtopic int // cap of SubtopicQuota

	ImportanceBase  float64 // multiplier = base + importance/ImportanceScale
	ImportanceScale float64
	MaxAdjusted     int // cap of AdjustedQuota

	VolumeShare     float64 // weight of normalized volume in BranchQuota
	ImportanceShare float64 // weight of normalized importance in BranchQuota
}

// DefaultWeights returns the production constants.
func DefaultWeights() Weights {
	return Weights{
		VolumeTopN: 20,
		Bands: []Band{
			{MinVolume: 40, Base: 6},
			{MinVolume: 20, Base: 4},
			{MinVolume: 10, Base: 3},
			{MinVolume: 0, Base: 2},
		},
		DetailMult: map[DetailLevel]float64{
			DetailLow:    0.6,
			DetailMedium: 1.0,
			DetailHigh:   1.4,
		},
		MaxSubtopic:     8,
		ImportanceBase:  0.5,
		ImportanceScale: 10,
		MaxAdjusted:     10,
		VolumeShare:     0.4,
		ImportanceShare: 0.6,
	}
}

var defaults = DefaultWeights()

// TopicVolume returns the percentage of the document's text covered by the
// blocks nearest to topicVec. lengths maps block id to normalized text
// length; total is the whole document's length.
func TopicVolume(idx *retrieval.Index, topicVec []float32, lengths map[int]int, total int) float64 {
	return defaults.TopicVolume(idx, topicVec, lengths, total)
}

func (w Weights) TopicVolume(idx *retrieval.Index, topicVec []float32, lengths map[int]int, total int) float64 {
	if total <= 0 || idx == nil || idx.Len() == 0 {
		return 0
	}
	var covered int
	for _, id := range idx.TopKIDs(topicVec, w.VolumeTopN) {
		covered += lengths[id]
	}
	return float64(covered) / float64(total) * 100
}

// SubtopicQuota is the number of subsections to request for a topic.
func SubtopicQuota(volume float64, level DetailLevel) int {
	return defaults.SubtopicQuota(volume, level)
}

func (w Weights) SubtopicQuota(volume float64, level DetailLevel) int {
	base := 0
	for _, b := range w.Bands {
		base = b.Base
		if volume >= b.MinVolume {
			break
		}
	}
	mult, ok := w.DetailMult[level]
	if !ok {
		mult = w.DetailMult[DetailMedium]
	}
	q := int(float64(base) * mult)
	if q < 1 {
		q = 1
	}
	if q > w.MaxSubtopic {
		q = w.MaxSubtopic
	}
	return q
}

// ImportanceMultiplier maps importance 1..10 onto 0.6..1.5.
func ImportanceMultiplier(importance int) float64 {
	return defaults.ImportanceMultiplier(importance)
}

func (w Weights) ImportanceMultiplier(importance int) float64 {
	return w.ImportanceBase + float64(importance)/w.ImportanceScale
}

// AdjustedQuota is SubtopicQuota scaled by importance, in [1, MaxAdjusted].
func AdjustedQuota(volume float64, importance int, level DetailLevel) int {
	return defaults.AdjustedQuota(volume, importance, level)
}

func (w Weights) AdjustedQuota(volume float64, importance int, level DetailLevel) int {
	q := int(float64(w.SubtopicQuota(volume, level)) * w.ImportanceMultiplier(importance))
	if q < 1 {
		q = 1
	}
	if q > w.MaxAdjusted {
		q = w.MaxAdjusted
	}
	return q
}

// BranchShare describes one branch competing for a pool of leaves.
type BranchShare struct {
	Volume          float64
	Importance      int
	TotalVolume     float64
	TotalImportance float64
	Pool            int // budget being distributed
	Branches        int // number of competing branches
	Min, Max        int
}

// BranchQuota blends normalized volume and importance shares into a leaf
// quota for one branch, clamped to [Min, Max].
func BranchQuota(s BranchShare) int {
	return defaults.BranchQuota(s)
}

func (w Weights) BranchQuota(s BranchShare) int {
	branches := s.Branches
	if branches < 1 {
		branches = 1
	}
	if s.TotalVolume == 0 && s.TotalImportance == 0 {
		return clamp(s.Pool/branches, s.Min, s.Max)
	}

	volumeShare := 1.0 / float64(branches)
	if s.TotalVolume > 0 {
		volumeShare = s.Volume / s.TotalVolume
	}
	importanceShare := 1.0 / float64(branches)
	if s.TotalImportance > 0 {
		importanceShare = float64(s.Importance) / s.TotalImportance
	}

	combined := volumeShare*w.VolumeShare + importanceShare*w.ImportanceShare
	return clamp(int(combined*float64(s.Pool)), s.Min, s.Max)
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
