package expand

import "github.com/ahrenberg/split-nlogo-experiment/internal/experiment"

// Select picks the experiments to expand. With all set every experiment is
// chosen; otherwise those whose name is in names. Chosen experiments keep
// file order. Unmatched lists each requested name that matched nothing,
// once, in request order.
func Select(experiments []*experiment.Node, names []string, all bool) (chosen []*experiment.Node, unmatched []string) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = false
	}

	for _, exp := range experiments {
		name := experiment.Name(exp)
		if _, ok := wanted[name]; ok {
			wanted[name] = true
		} else if !all {
			continue
		}
		chosen = append(chosen, exp)
	}

	reported := make(map[string]struct{}, len(names))
	for _, n := range names {
		if wanted[n] {
			continue
		}
		if _, dup := reported[n]; dup {
			continue
		}
		reported[n] = struct{}{}
		unmatched = append(unmatched, n)
	}
	return chosen, unmatched
}
