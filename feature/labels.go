package feature

// Labels is an ordered slice of features with a lookup from the feature string to its
// position. The position matches the coefficient index of a fitted model.
type Labels struct {
	idx    map[string]int
	labels []Feature
}

func NewLabels(labels []Feature) *Labels {
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l.String()] = i
	}
	return &Labels{idx: idx, labels: labels}
}

func (l *Labels) Len() int {
	if l == nil {
		return 0
	}
	return len(l.labels)
}

// Labels returns a copy of the ordered features
func (l *Labels) Labels() []Feature {
	if l == nil {
		return nil
	}
	res := make([]Feature, len(l.labels))
	copy(res, l.labels)
	return res
}

func (l *Labels) Index(f Feature) (int, bool) {
	if l == nil {
		return -1, false
	}
	i, exists := l.idx[f.String()]
	if !exists {
		return -1, false
	}
	return i, true
}
