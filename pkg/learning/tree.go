package learning

import (
	"math"
	"sort"
	"strconv"

	"github.com/juju/errors"

	"kautsky-classification/internal/domain"
	"kautsky-classification/pkg/rng"
)

const (
	CriterionGini    = "gini"
	CriterionEntropy = "entropy"

	leafChild   = -1
	leafFeature = -2
)

// DecisionTree is a CART classifier. Nodes are stored in parallel arrays,
// node 0 being the root; leaves have no children.
type DecisionTree struct {
	Criterion       string
	MaxDepth        int
	MinSamplesSplit int

	stream    *rng.Stream
	encoder   *LabelEncoder
	nFeatures int

	left      []int
	right     []int
	feature   []int
	threshold []float64
	class     []int
}

func NewDecisionTree(params *domain.DecisionTreeParams, stream *rng.Stream) (*DecisionTree, error) {
	criterion := params.Criterion
	if criterion == "" {
		criterion = CriterionGini
	}
	if criterion != CriterionGini && criterion != CriterionEntropy {
		return nil, errors.NotValidf("criterion %q", params.Criterion)
	}
	minSplit := params.MinSamplesSplit
	if minSplit < 2 {
		minSplit = 2
	}
	if stream == nil {
		stream = rng.New(0)
	}
	return &DecisionTree{
		Criterion:       criterion,
		MaxDepth:        params.MaxDepth,
		MinSamplesSplit: minSplit,
		stream:          stream,
	}, nil
}

func (t *DecisionTree) Fit(xs [][]float64, ys []domain.Label) error {
	if len(xs) == 0 {
		return errors.Trace(domain.ErrEmptyBatch)
	}
	if len(xs) != len(ys) {
		return errors.Errorf("%d samples but %d labels", len(xs), len(ys))
	}
	t.nFeatures = len(xs[0])
	for _, x := range xs {
		if len(x) != t.nFeatures {
			return errors.Annotatef(domain.ErrRowWidth, "expected %d features, got %d", t.nFeatures, len(x))
		}
	}
	t.encoder = NewLabelEncoder()
	y, err := t.encoder.FitTransform(ys)
	if err != nil {
		return errors.Trace(err)
	}

	t.left, t.right, t.feature, t.threshold, t.class = nil, nil, nil, nil, nil
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	t.grow(xs, y, idx, 0)
	return nil
}

func (t *DecisionTree) Predict(xs [][]float64) ([]domain.Label, error) {
	if t.encoder == nil {
		return nil, errors.New("decision tree is not fitted")
	}
	predictions := make([]domain.Label, len(xs))
	for i, x := range xs {
		if len(x) != t.nFeatures {
			return nil, errors.Annotatef(domain.ErrRowWidth, "expected %d features, got %d", t.nFeatures, len(x))
		}
		node := 0
		for t.left[node] != leafChild {
			if x[t.feature[node]] <= t.threshold[node] {
				node = t.left[node]
			} else {
				node = t.right[node]
			}
		}
		predictions[i] = t.encoder.Decode(t.class[node])
	}
	return predictions, nil
}

func (t *DecisionTree) NodeCount() int {
	return len(t.left)
}

// Describe dumps node count, left children, right children, features and
// thresholds.
func (t *DecisionTree) Describe() []string {
	row := []string{strconv.Itoa(t.NodeCount())}
	for _, arr := range [][]int{t.left, t.right, t.feature} {
		for _, v := range arr {
			row = append(row, strconv.Itoa(v))
		}
	}
	for _, v := range t.threshold {
		row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return row
}

func (t *DecisionTree) addNode() int {
	t.left = append(t.left, leafChild)
	t.right = append(t.right, leafChild)
	t.feature = append(t.feature, leafFeature)
	t.threshold = append(t.threshold, leafFeature)
	t.class = append(t.class, 0)
	return len(t.left) - 1
}

func (t *DecisionTree) grow(xs [][]float64, y []int, idx []int, depth int) int {
	node := t.addNode()
	counts := t.countClasses(y, idx)
	t.class[node] = argmaxInt(counts)

	if len(idx) < t.MinSamplesSplit ||
		(t.MaxDepth > 0 && depth >= t.MaxDepth) ||
		t.impurity(counts, len(idx)) == 0 {
		return node
	}

	feature, threshold, ok := t.bestSplit(xs, y, idx, counts)
	if !ok {
		return node
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if xs[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	t.feature[node] = feature
	t.threshold[node] = threshold
	leftChild := t.grow(xs, y, leftIdx, depth+1)
	rightChild := t.grow(xs, y, rightIdx, depth+1)
	t.left[node] = leftChild
	t.right[node] = rightChild
	return node
}

// bestSplit scans features in a random order and returns the midpoint
// threshold with the largest impurity decrease.
func (t *DecisionTree) bestSplit(xs [][]float64, y []int, idx []int, counts []int) (int, float64, bool) {
	n := len(idx)
	parent := t.impurity(counts, n)
	bestDecrease := 0.0
	bestFeature, bestThreshold := 0, 0.0
	found := false

	sorted := make([]int, n)
	leftCounts := make([]int, len(counts))
	rightCounts := make([]int, len(counts))

	for _, f := range t.stream.Perm(t.nFeatures) {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool {
			return xs[sorted[a]][f] < xs[sorted[b]][f]
		})
		clear(leftCounts)
		copy(rightCounts, counts)

		for k := 0; k < n-1; k++ {
			c := y[sorted[k]]
			leftCounts[c]++
			rightCounts[c]--
			current, next := xs[sorted[k]][f], xs[sorted[k+1]][f]
			if current == next {
				continue
			}
			nLeft, nRight := k+1, n-k-1
			weighted := (float64(nLeft)*t.impurity(leftCounts, nLeft) +
				float64(nRight)*t.impurity(rightCounts, nRight)) / float64(n)
			decrease := parent - weighted
			if decrease > bestDecrease+1e-12 {
				bestDecrease = decrease
				bestFeature = f
				bestThreshold = current + (next-current)/2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func (t *DecisionTree) countClasses(y []int, idx []int) []int {
	counts := make([]int, len(t.encoder.Classes))
	for _, i := range idx {
		counts[y[i]]++
	}
	return counts
}

func (t *DecisionTree) impurity(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	result := 0.0
	if t.Criterion == CriterionEntropy {
		for _, c := range counts {
			if c > 0 {
				p := float64(c) / float64(n)
				result -= p * math.Log2(p)
			}
		}
		return result
	}
	result = 1
	for _, c := range counts {
		p := float64(c) / float64(n)
		result -= p * p
	}
	return result
}

func argmaxInt(values []int) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
