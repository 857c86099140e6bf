package criteria

// Sanitize returns a copy of the group criteria fit for persistence:
// volatile dynamic query keys are stripped while the nested criteria that
// regenerate them are kept. Loading a sanitized filter re-mints the keys.
func Sanitize(groups []GroupCriteria) []GroupCriteria {
	out := make([]GroupCriteria, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
		sanitizeSequence(out[i].Criteria)
	}
	return out
}

func sanitizeSequence(seq Sequence) {
	for _, n := range seq {
		switch v := n.(type) {
		case *Criterion:
			v.DynamicQuery = ""
			for i := range v.DynamicCriteria {
				sanitizeSequence(v.DynamicCriteria[i].Criteria)
			}
		case *Group:
			sanitizeSequence(v.Criteria)
		}
	}
}
