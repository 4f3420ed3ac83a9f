package dedup

import "github.com/sells-group/funding-cli/internal/model"

// groupIndices partitions names into seed-anchored groups. Each unused name
// seeds a group and pulls in every later unused name scoring at least
// threshold against the seed. Membership is never tested against non-seed
// members, so A~B and B~C with A!~C yields {A,B} and {C}.
func groupIndices(names []string, threshold float64) [][]int {
	used := make([]bool, len(names))
	var groups [][]int

	for i := range names {
		if used[i] {
			continue
		}
		used[i] = true
		group := []int{i}

		for j := i + 1; j < len(names); j++ {
			if used[j] {
				continue
			}
			if Similarity(names[i], names[j]) >= threshold {
				group = append(group, j)
				used[j] = true
			}
		}

		groups = append(groups, group)
	}

	return groups
}

// Group partitions companies into groups believed to denote the same
// company, in group-creation order.
func (e *Engine) Group(companies []model.Company) [][]model.Company {
	names := make([]string, len(companies))
	for i, c := range companies {
		names[i] = Normalize(c.Name)
	}

	idx := groupIndices(names, e.opts.Threshold)
	groups := make([][]model.Company, len(idx))
	for g, members := range idx {
		groups[g] = make([]model.Company, len(members))
		for k, i := range members {
			groups[g][k] = companies[i]
		}
	}
	return groups
}
