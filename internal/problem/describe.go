package problem

import (
	"fmt"
	"strings"
)

// Describe renders the configuration, one "name : value" line per setting.
func (p *Problem) Describe() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("---------Config-----------\n")
	fmt.Fprintf(&sb, "%20s : %10d\n", "NumFeatures", p.featureCount)

	groups := make([]string, len(p.features))
	for i, ft := range p.features {
		groups[i] = fmt.Sprint(ft.GroupCount())
	}
	fmt.Fprintf(&sb, "%20s : %s\n", "GroupsPerFeature", strings.Join(groups, ":"))
	fmt.Fprintf(&sb, "%20s : %10d\n", "PrimaryFeature", p.primary)

	picks := make([]string, len(p.picks))
	for i, n := range p.picks {
		picks[i] = fmt.Sprint(n)
	}
	fmt.Fprintf(&sb, "%20s : %s\n", "PrimaryGroupPicks", strings.Join(picks, ":"))
	fmt.Fprintf(&sb, "%20s : %10d\n", "CollectionSize", p.collectionSize)
	fmt.Fprintf(&sb, "%20s : %10d\n", "NumItems", p.itemCount)
	fmt.Fprintf(&sb, "%20s : %10d\n", "NumConstraints", len(p.constraints))
	for cn, c := range p.constraints {
		desc := "<unset>"
		if c != nil {
			desc = c.Describe()
		}
		fmt.Fprintf(&sb, "Constraint%d : %s\n", cn+1, desc)
	}
	fmt.Fprintf(&sb, "%20s : %f\n", "MaxCost", p.maxCost)
	fmt.Fprintf(&sb, "%20s : %f\n", "MaxCostTol", p.params.CostRoundingTolerance)
	fmt.Fprintf(&sb, "%20s : %f\n", "ctol", p.params.CollectionTolerance)
	fmt.Fprintf(&sb, "%20s : %f\n", "itol", p.params.ItemTolerance)
	fmt.Fprintf(&sb, "%20s : %d\n", "ntol", p.params.ExtraKeep)
	fmt.Fprintf(&sb, "%20s : %d\n", "resnumb", p.params.BlockSize)
	fmt.Fprintf(&sb, "%20s : %d\n", "maxres", p.params.MaxRetained)
	fmt.Fprintf(&sb, "%20s : %d\n", "smode", p.params.SearchMode)
	return sb.String()
}

// DescribeFeatures renders every feature table.
func (p *Problem) DescribeFeatures() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	for i, ft := range p.features {
		fmt.Fprintf(&sb, "------Feature %d-------\n", i)
		sb.WriteString(ft.Describe())
	}
	return sb.String()
}

// DescribeItems renders one "index cost value" line per item.
func (p *Problem) DescribeItems() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("--------Items-----------\n")
	for i := range p.costs {
		fmt.Fprintf(&sb, "%d %f %f\n", i, p.costs[i], p.values[i])
	}
	return sb.String()
}
