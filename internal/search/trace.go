package search

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Verbosity is a bit mask selecting diagnostic output. It never changes results.
type Verbosity uint

const (
	VerboseConfig   Verbosity = 1 << iota // configuration dump
	VerboseStats                          // state-space estimates and counters
	VerboseFeatures                       // feature tables before and after the cull
	VerboseCombos                         // combination table of every group
	VerboseCalls                          // one line per recursive call
	VerboseCombo                          // one line per pruned, rejected or added candidate
	VerboseAdds                           // store state after every addition
)

// Has reports whether every bit of flag is set.
func (v Verbosity) Has(flag Verbosity) bool {
	return v&flag == flag
}

// trace logs one candidate decision when VerboseCombo is set.
func (s *Search) trace(tag string, g, i int, remaining, acc float32) {
	if s.verbosity&VerboseCombo == 0 {
		return
	}
	gen := s.groups[g].gen
	s.log.Info("candidate",
		zap.String("tag", tag),
		zap.String("state", s.stateString(g, i)),
		zap.Float32("spent", s.maxCost-remaining),
		zap.Float32("cost", gen.Cost(i)),
		zap.Float32("suffix_cost", s.groups[g].suffixCheapest),
		zap.Float32("value", acc),
		zap.Float32("combo_value", gen.Value(i)),
		zap.Float32("suffix_value", s.groups[g].suffixBest),
	)
}

// stateString shows the combinations chosen before position g, the candidate
// i at g between stars, and dashes for the positions still open.
func (s *Search) stateString(g, i int) string {
	var sb strings.Builder
	for j, gs := range s.groups {
		if j > 0 && j != g && j != g+1 {
			sb.WriteByte(':')
		}
		switch {
		case j < g:
			sb.WriteByte('(')
			writeItems(&sb, gs, gs.current)
			sb.WriteByte(')')
		case j == g:
			sb.WriteString("*[")
			writeItems(&sb, gs, i)
			sb.WriteString("]*")
		default:
			sb.WriteByte('(')
			for k := 0; k < gs.picks; k++ {
				if k > 0 {
					sb.WriteByte(',')
				}
				sb.WriteString("---")
			}
			sb.WriteByte(')')
		}
	}
	return sb.String()
}

func writeItems(sb *strings.Builder, gs *groupState, c int) {
	for k := 0; k < gs.picks; k++ {
		if k > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(sb, "%03d", gs.gen.Item(c, k))
	}
}
