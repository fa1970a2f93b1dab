package classify

import (
	"errors"
	"fmt"
	"math"

	"github.com/KyungWonPark/fhlearn/internal/calc"
	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// stump is a depth-1 regression tree.
type stump struct {
	feature   int // -1 when no split was possible
	threshold float64
	left      float64
	right     float64
}

func (s stump) value(row []float64) float64 {
	if s.feature < 0 || row[s.feature] <= s.threshold {
		return s.left
	}
	return s.right
}

type split struct {
	feature   int
	threshold float64
	score     float64
	leftRows  int
}

// GradientBoosting is a boosted ensemble of decision stumps. Two classes use the
// binomial deviance, more classes fit one stump per class per stage under the
// multinomial deviance.
type GradientBoosting struct {
	NEstimators  int
	LearningRate float64

	pl        *calc.PipeLine
	classes   []string
	nFeatures int
	init      []float64
	stages    [][]stump
}

// Name implements Classifier.
func (g *GradientBoosting) Name() string {
	return NameGradientBoosting
}

// Classes returns the fitted class labels, sorted.
func (g *GradientBoosting) Classes() []string {
	return g.classes
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// softmax writes the class probabilities for the raw scores f into p.
func softmax(p, f []float64) {
	top := floats.Max(f)
	var sum float64
	for k, v := range f {
		p[k] = math.Exp(v - top)
		sum += p[k]
	}
	floats.Scale(1/sum, p)
}

// Fit implements Classifier.
func (g *GradientBoosting) Fit(X *mat64.Dense, y []string) error {
	if err := checkXY(X, y); err != nil {
		return fmt.Errorf("gbc: %w", err)
	}
	if g.NEstimators < 1 || g.LearningRate <= 0 {
		return fmt.Errorf("gbc: need n_estimators >= 1 and learning_rate > 0, got %d and %g", g.NEstimators, g.LearningRate)
	}
	if g.pl == nil {
		g.pl = calc.Init(0, false)
	}

	classes := uniqueSorted(y)
	if len(classes) < 2 {
		return errors.New("gbc: need samples of at least two classes")
	}
	g.classes = classes

	rows, cols := X.Dims()
	g.nFeatures = cols
	target := make([]int, rows)
	for i, label := range y {
		for k, c := range classes {
			if c == label {
				target[i] = k
			}
		}
	}

	order := g.sortFeatures(X)
	g.stages = g.stages[:0]

	if len(classes) == 2 {
		g.fitBinary(X, target, order)
	} else {
		g.fitMultinomial(X, target, order)
	}

	return nil
}

func (g *GradientBoosting) fitBinary(X *mat64.Dense, target []int, order [][]int) {
	rows := len(target)

	var positives float64
	for _, k := range target {
		positives += float64(k)
	}
	prior := positives / float64(rows)
	g.init = []float64{math.Log(prior / (1 - prior))}

	f := make([]float64, rows)
	for i := range f {
		f[i] = g.init[0]
	}

	residual := make([]float64, rows)
	hessian := make([]float64, rows)
	for m := 0; m < g.NEstimators; m++ {
		for i := range f {
			p := sigmoid(f[i])
			residual[i] = float64(target[i]) - p
			hessian[i] = p * (1 - p)
		}

		s := g.fitStump(X, residual, hessian, 1, order)
		for i := range f {
			f[i] += g.LearningRate * s.value(X.RawRowView(i))
		}
		g.stages = append(g.stages, []stump{s})
	}
}

func (g *GradientBoosting) fitMultinomial(X *mat64.Dense, target []int, order [][]int) {
	rows := len(target)
	K := len(g.classes)

	counts := make([]float64, K)
	for _, k := range target {
		counts[k]++
	}
	g.init = make([]float64, K)
	for k := range counts {
		g.init[k] = math.Log(counts[k] / float64(rows))
	}

	f := make([][]float64, rows)
	p := make([][]float64, rows)
	for i := range f {
		f[i] = append([]float64(nil), g.init...)
		p[i] = make([]float64, K)
	}

	residual := make([]float64, rows)
	hessian := make([]float64, rows)
	scale := float64(K-1) / float64(K)
	for m := 0; m < g.NEstimators; m++ {
		for i := range f {
			softmax(p[i], f[i])
		}

		stage := make([]stump, K)
		for k := 0; k < K; k++ {
			for i := range f {
				y := 0.0
				if target[i] == k {
					y = 1
				}
				residual[i] = y - p[i][k]
				a := math.Abs(residual[i])
				hessian[i] = a * (1 - a)
			}
			stage[k] = g.fitStump(X, residual, hessian, scale, order)
		}

		for i := range f {
			row := X.RawRowView(i)
			for k, s := range stage {
				f[i][k] += g.LearningRate * s.value(row)
			}
		}
		g.stages = append(g.stages, stage)
	}
}

// sortFeatures returns, per feature, the row indices in ascending feature value.
func (g *GradientBoosting) sortFeatures(X *mat64.Dense) [][]int {
	rows, cols := X.Dims()
	order := make([][]int, cols)

	g.pl.Each("gbc-sort", cols, func(j int) {
		col := mat64.Col(make([]float64, rows), j, X)
		inds := make([]int, rows)
		floats.Argsort(col, inds)
		order[j] = inds
	})

	return order
}

// bestSplit finds the least-squares split of residual along feature j.
func bestSplit(X *mat64.Dense, residual []float64, j int, inds []int) split {
	best := split{feature: -1}

	var total float64
	for _, i := range inds {
		total += residual[i]
	}

	n := len(inds)
	var leftSum float64
	for pos := 0; pos < n-1; pos++ {
		leftSum += residual[inds[pos]]

		here := X.At(inds[pos], j)
		next := X.At(inds[pos+1], j)
		if here == next {
			continue
		}

		nl := float64(pos + 1)
		nr := float64(n - pos - 1)
		rightSum := total - leftSum
		score := leftSum*leftSum/nl + rightSum*rightSum/nr

		if best.feature < 0 || score > best.score {
			best = split{
				feature:   j,
				threshold: here + (next-here)/2,
				score:     score,
				leftRows:  pos + 1,
			}
		}
	}

	return best
}

// newtonLeaf is one Newton step for the rows of a leaf.
func newtonLeaf(residual, hessian []float64, rows []int, scale float64) float64 {
	var num, den float64
	for _, i := range rows {
		num += residual[i]
		den += hessian[i]
	}
	if math.Abs(den) < 1e-150 {
		return 0
	}
	return scale * num / den
}

func (g *GradientBoosting) fitStump(X *mat64.Dense, residual, hessian []float64, scale float64, order [][]int) stump {
	splits := make([]split, len(order))
	g.pl.Each("gbc-split", len(order), func(j int) {
		splits[j] = bestSplit(X, residual, j, order[j])
	})

	best := split{feature: -1}
	for _, s := range splits {
		if s.feature < 0 {
			continue
		}
		if best.feature < 0 || s.score > best.score {
			best = s
		}
	}

	if best.feature < 0 {
		all := order[0]
		return stump{feature: -1, left: newtonLeaf(residual, hessian, all, scale)}
	}

	inds := order[best.feature]
	return stump{
		feature:   best.feature,
		threshold: best.threshold,
		left:      newtonLeaf(residual, hessian, inds[:best.leftRows], scale),
		right:     newtonLeaf(residual, hessian, inds[best.leftRows:], scale),
	}
}

// decision returns the raw scores for one sample.
func (g *GradientBoosting) decision(row []float64) []float64 {
	f := append([]float64(nil), g.init...)
	for _, stage := range g.stages {
		for k, s := range stage {
			f[k] += g.LearningRate * s.value(row)
		}
	}
	return f
}

// Predict implements Classifier.
func (g *GradientBoosting) Predict(X *mat64.Dense) ([]string, error) {
	if g.classes == nil {
		return nil, ErrNotFitted
	}

	rows, cols := X.Dims()
	if cols != g.nFeatures {
		return nil, fmt.Errorf("gbc: fitted on %d features, got %d", g.nFeatures, cols)
	}

	pred := make([]string, rows)
	for i := 0; i < rows; i++ {
		f := g.decision(X.RawRowView(i))
		if len(g.classes) == 2 {
			if f[0] > 0 {
				pred[i] = g.classes[1]
			} else {
				pred[i] = g.classes[0]
			}
			continue
		}
		pred[i] = g.classes[floats.MaxIdx(f)]
	}

	return pred, nil
}
