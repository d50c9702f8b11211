package forest

import (
	"math/rand"
	"sort"
)

// node is a binary regression tree node. Leaves carry the mean target
// vector of the training samples that reached them.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	value     []float64 // non-nil for leaves
}

type tree struct {
	root *node
}

func (t *tree) predict(v []float64) []float64 {
	n := t.root
	for n.value == nil {
		if v[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// grower holds per-tree training state so recursion does not have to
// pass everything around.
type grower struct {
	x           [][]float64
	y           [][]float64
	maxDepth    int
	minLeaf     int
	maxFeatures int
	rng         *rand.Rand
	features    []int
}

func (g *grower) grow(idx []int, depth int) *node {
	if g.maxDepth > 0 && depth >= g.maxDepth {
		return &node{value: g.mean(idx)}
	}
	if len(idx) < 2*g.minLeaf || len(idx) < 2 {
		return &node{value: g.mean(idx)}
	}

	feat, thr, ok := g.bestSplit(idx)
	if !ok {
		return &node{value: g.mean(idx)}
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if g.x[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &node{value: g.mean(idx)}
	}

	return &node{
		feature:   feat,
		threshold: thr,
		left:      g.grow(left, depth+1),
		right:     g.grow(right, depth+1),
	}
}

func (g *grower) mean(idx []int) []float64 {
	t := len(g.y[0])
	m := make([]float64, t)
	for _, i := range idx {
		for o, v := range g.y[i] {
			m[o] += v
		}
	}
	inv := 1.0 / float64(len(idx))
	for o := range m {
		m[o] *= inv
	}
	return m
}

// bestSplit scans a random subset of features for the split that maximizes
// the summed per-output variance reduction. Returns ok=false when no
// feature admits a valid split (all candidate values constant).
func (g *grower) bestSplit(idx []int) (feature int, threshold float64, ok bool) {
	nOut := len(g.y[0])
	n := float64(len(idx))

	total := make([]float64, nOut)
	for _, i := range idx {
		for o, v := range g.y[i] {
			total[o] += v
		}
	}

	// baseline: everything in one node
	base := 0.0
	for o := 0; o < nOut; o++ {
		base += total[o] * total[o] / n
	}

	g.shuffleFeatures()
	candidates := g.features[:g.maxFeatures]

	best := base
	order := make([]int, len(idx))
	sumLeft := make([]float64, nOut)

	for _, f := range candidates {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return g.x[order[a]][f] < g.x[order[b]][f] })

		for o := range sumLeft {
			sumLeft[o] = 0
		}

		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			for o, v := range g.y[i] {
				sumLeft[o] += v
			}

			// no split between identical feature values
			if g.x[order[pos]][f] == g.x[order[pos+1]][f] {
				continue
			}
			nl := pos + 1
			nr := len(order) - nl
			if nl < g.minLeaf || nr < g.minLeaf {
				continue
			}

			score := 0.0
			for o := 0; o < nOut; o++ {
				sr := total[o] - sumLeft[o]
				score += sumLeft[o]*sumLeft[o]/float64(nl) + sr*sr/float64(nr)
			}
			if score > best {
				best = score
				feature = f
				threshold = (g.x[order[pos]][f] + g.x[order[pos+1]][f]) / 2
				ok = true
			}
		}
	}

	return feature, threshold, ok
}

func (g *grower) shuffleFeatures() {
	if g.maxFeatures == len(g.features) {
		return
	}
	g.rng.Shuffle(len(g.features), func(i, j int) {
		g.features[i], g.features[j] = g.features[j], g.features[i]
	})
}
