package transcribe

import (
	"fmt"
	"strings"
	"unicode"
)

// WERResult holds word error rate details for one transcript.
type WERResult struct {
	WER           float64 // (S+I+D)/RefWords; 0 is perfect
	Substitutions int
	Insertions    int
	Deletions     int
	RefWords      int
}

func (r WERResult) String() string {
	return fmt.Sprintf("WER %.1f%% (%d words: %d sub, %d ins, %d del)",
		r.WER*100, r.RefWords, r.Substitutions, r.Insertions, r.Deletions)
}

// editCell is one DP cell: the edit cost and the operations that produced it.
type editCell struct {
	subs, ins, dels int
}

func (c editCell) cost() int { return c.subs + c.ins + c.dels }

// ComputeWER scores hypothesis against reference after lowercasing,
// stripping punctuation and collapsing whitespace. An empty reference
// scores zero.
func ComputeWER(reference, hypothesis string) WERResult {
	ref := normalizeWords(reference)
	hyp := normalizeWords(hypothesis)
	if len(ref) == 0 {
		return WERResult{}
	}

	// Two rolling rows over the hypothesis; row i aligns ref[:i].
	prev := make([]editCell, len(hyp)+1)
	cur := make([]editCell, len(hyp)+1)
	for j := range prev {
		prev[j] = editCell{ins: j}
	}

	for i := 1; i <= len(ref); i++ {
		cur[0] = editCell{dels: i}
		for j := 1; j <= len(hyp); j++ {
			if ref[i-1] == hyp[j-1] {
				cur[j] = prev[j-1]
				continue
			}
			sub := prev[j-1]
			sub.subs++
			del := prev[j]
			del.dels++
			ins := cur[j-1]
			ins.ins++

			best := sub
			if del.cost() < best.cost() {
				best = del
			}
			if ins.cost() < best.cost() {
				best = ins
			}
			cur[j] = best
		}
		prev, cur = cur, prev
	}

	final := prev[len(hyp)]
	return WERResult{
		WER:           float64(final.cost()) / float64(len(ref)),
		Substitutions: final.subs,
		Insertions:    final.ins,
		Deletions:     final.dels,
		RefWords:      len(ref),
	}
}

// normalizeWords lowercases text, strips punctuation, and splits into words.
func normalizeWords(s string) []string {
	return strings.Fields(strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s))
}
