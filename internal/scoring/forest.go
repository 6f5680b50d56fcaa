package scoring

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ForestOptions controls training.
type ForestOptions struct {
	Trees       int
	Seed        int64
	MaxDepth    int // 0 means unlimited
	MinSplit    int // minimum samples to split a node
	MaxFeatures int // features tried per split; 0 means sqrt(n)
}

// DefaultForestOptions mirrors the usual random forest defaults.
func DefaultForestOptions() ForestOptions {
	return ForestOptions{Trees: 100, Seed: 42, MinSplit: 2}
}

// Forest is a binary random forest classifier. Class 1 is Pass, class 0 is Fail.
type Forest struct {
	Features []string `json:"features"`
	Seed     int64    `json:"seed"`
	Trees    []*node  `json:"trees"`
}

type node struct {
	Feature   int         `json:"f,omitempty"`
	Threshold float64     `json:"t,omitempty"`
	Left      *node       `json:"l,omitempty"`
	Right     *node       `json:"r,omitempty"`
	Prob      *[2]float64 `json:"p,omitempty"`
}

func (n *node) leaf() bool { return n.Prob != nil }

// ErrSingleClass is returned when training data lacks Pass or Fail examples.
var ErrSingleClass = errors.New("training data needs both Pass and Fail examples")

// TrainForest grows opts.Trees CART trees on bootstrap samples. Training is
// deterministic for a given dataset and seed.
func TrainForest(ds *Dataset, opts ForestOptions) (*Forest, error) {
	if err := ds.validate(); err != nil {
		return nil, err
	}
	if opts.Trees <= 0 {
		return nil, fmt.Errorf("forest needs at least one tree, got %d", opts.Trees)
	}
	if opts.MinSplit < 2 {
		opts.MinSplit = 2
	}
	nFeatures := len(ds.Features)
	if opts.MaxFeatures <= 0 || opts.MaxFeatures > nFeatures {
		opts.MaxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(nFeatures)))))
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	f := &Forest{Features: append([]string(nil), ds.Features...), Seed: opts.Seed}
	n := len(ds.X)
	for t := 0; t < opts.Trees; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		g := grower{ds: ds, opts: opts, rng: rng}
		f.Trees = append(f.Trees, g.grow(sample, 0))
	}
	return f, nil
}

// PredictProba returns the averaged class distribution [P(Fail), P(Pass)].
func (f *Forest) PredictProba(x []float64) ([2]float64, error) {
	var out [2]float64
	if len(x) != len(f.Features) {
		return out, fmt.Errorf("forest expects %d features, got %d", len(f.Features), len(x))
	}
	if len(f.Trees) == 0 {
		return out, errors.New("forest has no trees")
	}
	for _, t := range f.Trees {
		p := t.predict(x)
		out[0] += p[0]
		out[1] += p[1]
	}
	k := float64(len(f.Trees))
	out[0] /= k
	out[1] /= k
	return out, nil
}

// Predict returns the winning class and its probability. Ties go to Fail.
func (f *Forest) Predict(x []float64) (int, float64, error) {
	p, err := f.PredictProba(x)
	if err != nil {
		return 0, 0, err
	}
	if p[1] > p[0] {
		return 1, p[1], nil
	}
	return 0, p[0], nil
}

func (n *node) predict(x []float64) [2]float64 {
	for !n.leaf() {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return *n.Prob
}

type grower struct {
	ds   *Dataset
	opts ForestOptions
	rng  *rand.Rand
}

func (g *grower) grow(idx []int, depth int) *node {
	counts := g.counts(idx)
	if counts[0] == 0 || counts[1] == 0 || len(idx) < g.opts.MinSplit ||
		(g.opts.MaxDepth > 0 && depth >= g.opts.MaxDepth) {
		return leafFor(counts)
	}

	feature, threshold, ok := g.bestSplit(idx, counts)
	if !ok {
		return leafFor(counts)
	}
	var left, right []int
	for _, i := range idx {
		if g.ds.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &node{
		Feature:   feature,
		Threshold: threshold,
		Left:      g.grow(left, depth+1),
		Right:     g.grow(right, depth+1),
	}
}

func (g *grower) counts(idx []int) [2]int {
	var c [2]int
	for _, i := range idx {
		c[g.ds.Y[i]]++
	}
	return c
}

func leafFor(c [2]int) *node {
	total := float64(c[0] + c[1])
	return &node{Prob: &[2]float64{float64(c[0]) / total, float64(c[1]) / total}}
}

func gini(c [2]int) float64 {
	total := float64(c[0] + c[1])
	if total == 0 {
		return 0
	}
	p0 := float64(c[0]) / total
	p1 := float64(c[1]) / total
	return 1 - p0*p0 - p1*p1
}

// bestSplit tries MaxFeatures random features and every midpoint between
// consecutive distinct values, keeping the lowest weighted Gini impurity.
func (g *grower) bestSplit(idx []int, parent [2]int) (int, float64, bool) {
	total := float64(len(idx))
	best := gini(parent)
	bestFeature, bestThreshold, found := 0, 0.0, false

	features := g.rng.Perm(len(g.ds.Features))[:g.opts.MaxFeatures]
	sorted := make([]int, len(idx))
	for _, f := range features {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool {
			return g.ds.X[sorted[a]][f] < g.ds.X[sorted[b]][f]
		})

		var left [2]int
		right := parent
		for k := 0; k < len(sorted)-1; k++ {
			y := g.ds.Y[sorted[k]]
			left[y]++
			right[y]--
			v, next := g.ds.X[sorted[k]][f], g.ds.X[sorted[k+1]][f]
			if v == next {
				continue
			}
			nl := float64(k + 1)
			score := (nl*gini(left) + (total-nl)*gini(right)) / total
			if score < best {
				best = score
				bestFeature = f
				bestThreshold = v + (next-v)/2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}
