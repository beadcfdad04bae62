package learning

import (
	"math"
	"slices"
	"strconv"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"kautsky-classification/internal/domain"
	"kautsky-classification/pkg/rng"
)

const (
	ActivationReLU     = "relu"
	ActivationTanh     = "tanh"
	ActivationLogistic = "logistic"
	ActivationIdentity = "identity"

	SolverSGD  = "sgd"
	SolverAdam = "adam"

	outputSoftmax  = "softmax"
	outputLogistic = "logistic"

	defaultMaxIterations = 200
	maxBatchSize         = 200
	validationFraction   = 0.1
	iterNoChange         = 10
	tolerance            = 1e-4
	probabilityClip      = 1e-10
)

// NeuralNetwork is a multilayer perceptron. Scalar labels are learned with a
// softmax output over the distinct classes; vector labels with one logistic
// output per component, thresholded at 0.5 on prediction.
type NeuralNetwork struct {
	Activation    string
	Solver        string
	Alpha         float64
	LearningRate  float64
	HiddenLayers  []int
	MaxIterations int
	EarlyStopping bool

	stream     *rng.Stream
	encoder    *LabelEncoder
	vector     bool
	nFeatures  int
	iterations int

	weights []*mat.Dense
	biases  [][]float64
}

func NewNeuralNetwork(params *domain.NeuralNetworkParams, stream *rng.Stream) (*NeuralNetwork, error) {
	nn := &NeuralNetwork{
		Activation:    params.Activation,
		Solver:        params.Solver,
		Alpha:         params.Alpha,
		LearningRate:  params.LearningRate,
		HiddenLayers:  slices.Clone(params.HiddenLayersSize),
		MaxIterations: params.MaxIterations,
		EarlyStopping: params.EarlyStopping,
		stream:        stream,
	}
	if nn.Activation == "" {
		nn.Activation = ActivationReLU
	}
	switch nn.Activation {
	case ActivationReLU, ActivationTanh, ActivationLogistic, ActivationIdentity:
	default:
		return nil, errors.NotValidf("activation %q", params.Activation)
	}
	if nn.Solver == "" {
		nn.Solver = SolverAdam
	}
	switch nn.Solver {
	case SolverAdam:
		if nn.LearningRate <= 0 {
			nn.LearningRate = 0.001
		}
	case SolverSGD:
		if nn.LearningRate <= 0 {
			nn.LearningRate = 0.01
		}
	default:
		return nil, errors.NotValidf("solver %q", params.Solver)
	}
	if nn.Alpha < 0 {
		return nil, errors.NotValidf("negative alpha %v", params.Alpha)
	}
	for _, size := range nn.HiddenLayers {
		if size <= 0 {
			return nil, errors.NotValidf("hidden layer size %d", size)
		}
	}
	if nn.MaxIterations <= 0 {
		nn.MaxIterations = defaultMaxIterations
	}
	if nn.stream == nil {
		nn.stream = rng.New(0)
	}
	return nn, nil
}

func (nn *NeuralNetwork) Iterations() int {
	return nn.iterations
}

func (nn *NeuralNetwork) Fit(xs [][]float64, ys []domain.Label) error {
	if len(xs) == 0 {
		return errors.Trace(domain.ErrEmptyBatch)
	}
	if len(xs) != len(ys) {
		return errors.Errorf("%d samples but %d labels", len(xs), len(ys))
	}
	nn.nFeatures = len(xs[0])
	for _, x := range xs {
		if len(x) != nn.nFeatures {
			return errors.Annotatef(domain.ErrRowWidth, "expected %d features, got %d", nn.nFeatures, len(x))
		}
	}
	nn.encoder = NewLabelEncoder()
	if err := nn.encoder.Fit(ys); err != nil {
		return errors.Trace(err)
	}
	nn.vector = ys[0].Kind == domain.LabelVector
	targets, err := nn.targets(ys)
	if err != nil {
		return errors.Trace(err)
	}

	_, nOutputs := targets.Dims()
	nn.initialize(nOutputs)

	all := nn.stream.Perm(len(xs))
	trainIdx, validIdx := all, []int(nil)
	if nn.EarlyStopping {
		nValid := int(float64(len(xs)) * validationFraction)
		if nValid > 0 && nValid < len(xs) {
			trainIdx, validIdx = all[nValid:], all[:nValid]
		}
	}

	opt := newOptimizer(nn.Solver, nn.LearningRate, nn.parameters())
	batchSize := min(maxBatchSize, len(trainIdx))
	var validX, validY *mat.Dense
	if len(validIdx) > 0 {
		validX, validY = gatherRows(xs, validIdx), gatherTargets(targets, validIdx)
	}
	bestLoss := math.Inf(1)
	var snapshot [][]float64
	noImprovement := 0
	nn.iterations = 0

	for epoch := 0; epoch < nn.MaxIterations; epoch++ {
		order := slices.Clone(trainIdx)
		nn.stream.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		loss := 0.0
		for start := 0; start < len(order); start += batchSize {
			batch := order[start:min(start+batchSize, len(order))]
			x, y := gatherRows(xs, batch), gatherTargets(targets, batch)
			acts := nn.forward(x)
			loss += nn.loss(acts[len(acts)-1], y) * float64(len(batch))
			opt.step(nn.parameters(), nn.gradients(acts, y))
		}
		loss /= float64(len(order))
		nn.iterations = epoch + 1

		// With a validation set the held-out loss decides, and the best
		// parameters seen are restored at the end.
		if validX != nil {
			acts := nn.forward(validX)
			loss = nn.loss(acts[len(acts)-1], validY)
		}
		if loss > bestLoss-tolerance {
			noImprovement++
		} else {
			noImprovement = 0
			if validX != nil {
				snapshot = nn.copyParameters()
			}
		}
		bestLoss = min(bestLoss, loss)
		if noImprovement >= iterNoChange {
			break
		}
	}
	if snapshot != nil {
		for i, p := range nn.parameters() {
			copy(p, snapshot[i])
		}
	}
	return nil
}

func (nn *NeuralNetwork) Predict(xs [][]float64) ([]domain.Label, error) {
	if nn.encoder == nil {
		return nil, errors.New("neural network is not fitted")
	}
	if len(xs) == 0 {
		return nil, nil
	}
	for _, x := range xs {
		if len(x) != nn.nFeatures {
			return nil, errors.Annotatef(domain.ErrRowWidth, "expected %d features, got %d", nn.nFeatures, len(x))
		}
	}
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	acts := nn.forward(gatherRows(xs, idx))
	out := acts[len(acts)-1]
	predictions := make([]domain.Label, len(xs))
	for i := range predictions {
		row := out.RawRowView(i)
		if nn.vector {
			values := make([]int, len(row))
			for j, p := range row {
				if p >= 0.5 {
					values[j] = 1
				}
			}
			predictions[i] = domain.VectorLabel(values...)
		} else {
			predictions[i] = nn.encoder.Decode(floats.MaxIdx(row))
		}
	}
	return predictions, nil
}

// Describe dumps output activation, layer count, output count, every weight
// matrix row by row and then every bias vector.
func (nn *NeuralNetwork) Describe() []string {
	nOutputs := 0
	if len(nn.biases) > 0 {
		nOutputs = len(nn.biases[len(nn.biases)-1])
	}
	row := []string{nn.outputActivation(), strconv.Itoa(len(nn.weights) + 1), strconv.Itoa(nOutputs)}
	for _, w := range nn.weights {
		for _, v := range w.RawMatrix().Data {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	for _, b := range nn.biases {
		for _, v := range b {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	return row
}

func (nn *NeuralNetwork) outputActivation() string {
	if nn.vector {
		return outputLogistic
	}
	return outputSoftmax
}

func (nn *NeuralNetwork) targets(ys []domain.Label) (*mat.Dense, error) {
	if nn.vector {
		width := ys[0].Width()
		data := make([]float64, 0, len(ys)*width)
		for _, y := range ys {
			for _, v := range y.Vector {
				data = append(data, float64(v))
			}
		}
		return mat.NewDense(len(ys), width, data), nil
	}
	encoded, err := nn.encoder.Transform(ys)
	if err != nil {
		return nil, err
	}
	targets := mat.NewDense(len(ys), len(nn.encoder.Classes), nil)
	for i, c := range encoded {
		targets.Set(i, c, 1)
	}
	return targets, nil
}

// initialize draws Glorot uniform weights.
func (nn *NeuralNetwork) initialize(nOutputs int) {
	sizes := append([]int{nn.nFeatures}, nn.HiddenLayers...)
	sizes = append(sizes, nOutputs)
	nn.weights = make([]*mat.Dense, len(sizes)-1)
	nn.biases = make([][]float64, len(sizes)-1)
	factor := 6.0
	if nn.Activation == ActivationLogistic {
		factor = 2.0
	}
	for l := 0; l < len(sizes)-1; l++ {
		fanIn, fanOut := sizes[l], sizes[l+1]
		bound := math.Sqrt(factor / float64(fanIn+fanOut))
		data := make([]float64, fanIn*fanOut)
		for i := range data {
			data[i] = (nn.stream.Float64()*2 - 1) * bound
		}
		nn.weights[l] = mat.NewDense(fanIn, fanOut, data)
		nn.biases[l] = make([]float64, fanOut)
		for i := range nn.biases[l] {
			nn.biases[l][i] = (nn.stream.Float64()*2 - 1) * bound
		}
	}
}

// parameters returns flat views of every weight matrix and bias vector.
func (nn *NeuralNetwork) parameters() [][]float64 {
	params := make([][]float64, 0, 2*len(nn.weights))
	for l := range nn.weights {
		params = append(params, nn.weights[l].RawMatrix().Data, nn.biases[l])
	}
	return params
}

func (nn *NeuralNetwork) copyParameters() [][]float64 {
	params := nn.parameters()
	snapshot := make([][]float64, len(params))
	for i, p := range params {
		snapshot[i] = slices.Clone(p)
	}
	return snapshot
}

func (nn *NeuralNetwork) forward(x *mat.Dense) []*mat.Dense {
	acts := make([]*mat.Dense, len(nn.weights)+1)
	acts[0] = x
	for l, w := range nn.weights {
		z := &mat.Dense{}
		z.Mul(acts[l], w)
		rows, _ := z.Dims()
		last := l == len(nn.weights)-1
		for i := 0; i < rows; i++ {
			row := z.RawRowView(i)
			floats.Add(row, nn.biases[l])
			switch {
			case !last:
				activate(nn.Activation, row)
			case nn.vector:
				activate(ActivationLogistic, row)
			default:
				softmax(row)
			}
		}
		acts[l+1] = z
	}
	return acts
}

// gradients back-propagates the cross-entropy loss with L2 penalty. The
// result is in the same order as parameters.
func (nn *NeuralNetwork) gradients(acts []*mat.Dense, y *mat.Dense) [][]float64 {
	n := len(nn.weights)
	batch, _ := y.Dims()
	grads := make([][]float64, 2*n)

	delta := &mat.Dense{}
	delta.Sub(acts[n], y)
	delta.Scale(1/float64(batch), delta)

	for l := n - 1; l >= 0; l-- {
		gw := &mat.Dense{}
		gw.Mul(acts[l].T(), delta)
		reg := &mat.Dense{}
		reg.Scale(nn.Alpha/float64(batch), nn.weights[l])
		gw.Add(gw, reg)

		_, cols := delta.Dims()
		gb := make([]float64, cols)
		for j := range gb {
			gb[j] = floats.Sum(mat.Col(nil, j, delta))
		}
		grads[2*l], grads[2*l+1] = gw.RawMatrix().Data, gb

		if l > 0 {
			prev := &mat.Dense{}
			prev.Mul(delta, nn.weights[l].T())
			hidden := acts[l]
			prev.Apply(func(i, j int, v float64) float64 {
				return v * derivative(nn.Activation, hidden.At(i, j))
			}, prev)
			delta = prev
		}
	}
	return grads
}

func (nn *NeuralNetwork) loss(out, y *mat.Dense) float64 {
	rows, cols := out.Dims()
	total := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			p := math.Min(math.Max(out.At(i, j), probabilityClip), 1-probabilityClip)
			t := y.At(i, j)
			if nn.vector {
				total -= t*math.Log(p) + (1-t)*math.Log(1-p)
			} else {
				total -= t * math.Log(p)
			}
		}
	}
	penalty := 0.0
	for _, w := range nn.weights {
		penalty += floats.Dot(w.RawMatrix().Data, w.RawMatrix().Data)
	}
	return total/float64(rows) + 0.5*nn.Alpha*penalty/float64(rows)
}

func activate(kind string, row []float64) {
	for i, v := range row {
		switch kind {
		case ActivationReLU:
			row[i] = math.Max(v, 0)
		case ActivationTanh:
			row[i] = math.Tanh(v)
		case ActivationLogistic:
			row[i] = 1 / (1 + math.Exp(-v))
		}
	}
}

// derivative is expressed in terms of the activation output a.
func derivative(kind string, a float64) float64 {
	switch kind {
	case ActivationReLU:
		if a > 0 {
			return 1
		}
		return 0
	case ActivationTanh:
		return 1 - a*a
	case ActivationLogistic:
		return a * (1 - a)
	default:
		return 1
	}
}

func softmax(row []float64) {
	m := floats.Max(row)
	sum := 0.0
	for i, v := range row {
		row[i] = math.Exp(v - m)
		sum += row[i]
	}
	floats.Scale(1/sum, row)
}

func gatherRows(xs [][]float64, idx []int) *mat.Dense {
	cols := len(xs[idx[0]])
	data := make([]float64, 0, len(idx)*cols)
	for _, i := range idx {
		data = append(data, xs[i]...)
	}
	return mat.NewDense(len(idx), cols, data)
}

func gatherTargets(targets *mat.Dense, idx []int) *mat.Dense {
	_, cols := targets.Dims()
	out := mat.NewDense(len(idx), cols, nil)
	for k, i := range idx {
		out.SetRow(k, targets.RawRowView(i))
	}
	return out
}

// optimizer updates flat parameter slices in place.
type optimizer struct {
	solver string
	rate   float64
	steps  int
	m, v   [][]float64
}

func newOptimizer(solver string, rate float64, params [][]float64) *optimizer {
	opt := &optimizer{solver: solver, rate: rate}
	if solver == SolverAdam {
		opt.m = make([][]float64, len(params))
		opt.v = make([][]float64, len(params))
		for i, p := range params {
			opt.m[i] = make([]float64, len(p))
			opt.v[i] = make([]float64, len(p))
		}
	}
	return opt
}

func (o *optimizer) step(params, grads [][]float64) {
	if o.solver == SolverSGD {
		for i, p := range params {
			floats.AddScaled(p, -o.rate, grads[i])
		}
		return
	}
	const beta1, beta2, epsilon = 0.9, 0.999, 1e-8
	o.steps++
	t := float64(o.steps)
	rate := o.rate * math.Sqrt(1-math.Pow(beta2, t)) / (1 - math.Pow(beta1, t))
	for i, p := range params {
		m, v, g := o.m[i], o.v[i], grads[i]
		for j := range p {
			m[j] = beta1*m[j] + (1-beta1)*g[j]
			v[j] = beta2*v[j] + (1-beta2)*g[j]*g[j]
			p[j] -= rate * m[j] / (math.Sqrt(v[j]) + epsilon)
		}
	}
}
