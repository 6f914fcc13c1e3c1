package models

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/RyanBlaney/sonido-genre/errs"
)

// Activation is a layer's transfer function
type Activation int

const (
	Sigmoid Activation = iota
	ReLU
	Softmax
)

func (a Activation) String() string {
	switch a {
	case Sigmoid:
		return "SIGMOID"
	case ReLU:
		return "RELU"
	case Softmax:
		return "SOFTMAX"
	default:
		return "UNKNOWN"
	}
}

// ParseActivation maps a case-insensitive name to an Activation
func ParseActivation(s string) (Activation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SIGMOID":
		return Sigmoid, nil
	case "RELU":
		return ReLU, nil
	case "SOFTMAX":
		return Softmax, nil
	default:
		return 0, fmt.Errorf("%w: activation %q", errs.ErrUnsupported, s)
	}
}

// Apply writes the activation of the weighted sums z into dst.
// Softmax is a whole-vector operation; the others are elementwise.
func (a Activation) Apply(dst, z []float64) error {
	switch a {
	case Sigmoid:
		for i, v := range z {
			dst[i] = 1 / (1 + math.Exp(-v))
		}
	case ReLU:
		for i, v := range z {
			dst[i] = max(0, v)
		}
	case Softmax:
		if len(z) == 0 {
			return nil
		}
		// shifting by the max leaves the result unchanged and keeps exp finite
		peak := floats.Max(z)
		sum := 0.0
		for i, v := range z {
			dst[i] = math.Exp(v - peak)
			sum += dst[i]
		}
		floats.Scale(1/sum, dst[:len(z)])
	default:
		return fmt.Errorf("%w: activation %d", errs.ErrUnsupported, int(a))
	}
	return nil
}

// Neuron is a bias and one weight per input
type Neuron struct {
	Bias    float64
	Weights []float64
}

// WeightedSum returns weights·inputs + bias
func (n *Neuron) WeightedSum(inputs []float64) (float64, error) {
	if len(inputs) != len(n.Weights) {
		return 0, errs.SizeMismatch("neuron input", len(inputs), len(n.Weights))
	}
	return floats.Dot(n.Weights, inputs) + n.Bias, nil
}

// Layer is an ordered list of neurons sharing one activation
type Layer struct {
	Neurons    []Neuron
	Activation Activation
}

// Network is a feed-forward classifier. Layers run in ascending index order;
// classes[i] names output neuron i.
type Network struct {
	layers  map[int]Layer
	order   []int
	classes []string
}

// NewNetwork returns a network without layers
func NewNetwork() *Network {
	return &Network{layers: make(map[int]Layer)}
}

// AddLayer registers neurons under index
func (n *Network) AddLayer(index int, neurons []Neuron, activation Activation) error {
	if _, ok := n.layers[index]; ok {
		return fmt.Errorf("%w: network already has layer %d", errs.ErrStructural, index)
	}
	if n.layers == nil {
		n.layers = make(map[int]Layer)
	}
	n.layers[index] = Layer{Neurons: neurons, Activation: activation}
	n.order = append(n.order, index)
	sort.Ints(n.order)
	return nil
}

// SetClasses sets the output labels, aligned with the last layer's neurons
func (n *Network) SetClasses(classes []string) {
	n.classes = classes
}

// Classes returns the output labels
func (n *Network) Classes() []string {
	return n.classes
}

// Layers returns the layers in execution order
func (n *Network) Layers() []Layer {
	out := make([]Layer, len(n.order))
	for i, idx := range n.order {
		out[i] = n.layers[idx]
	}
	return out
}

// Predict runs the forward pass and returns the label of the strongest
// output; on equal outputs the first one wins.
func (n *Network) Predict(features []float64) (string, error) {
	if len(n.order) == 0 {
		return "", fmt.Errorf("%w: network has no layers", errs.ErrNotFound)
	}

	activations := features
	for _, idx := range n.order {
		layer := n.layers[idx]
		z := make([]float64, len(layer.Neurons))
		for j := range layer.Neurons {
			sum, err := layer.Neurons[j].WeightedSum(activations)
			if err != nil {
				return "", fmt.Errorf("layer %d neuron %d: %w", idx, j, err)
			}
			z[j] = sum
		}
		if err := layer.Activation.Apply(z, z); err != nil {
			return "", fmt.Errorf("layer %d: %w", idx, err)
		}
		activations = z
	}

	if len(activations) != len(n.classes) {
		return "", errs.SizeMismatch("output layer", len(activations), len(n.classes))
	}
	if len(activations) == 0 {
		return "", fmt.Errorf("%w: output layer is empty", errs.ErrStructural)
	}
	return n.classes[floats.MaxIdx(activations)], nil
}

func (n *Network) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Network(%d layers, %d classes)", len(n.order), len(n.classes))
	for _, idx := range n.order {
		l := n.layers[idx]
		fmt.Fprintf(&b, "\n  layer %d: %d neurons, %s", idx, len(l.Neurons), l.Activation)
	}
	return b.String()
}

// LoadNetwork reads one *.csv layer table per layer from dir in alphabetical
// order. Rows are bias then weights; rows of the last table end with the
// class label. The last layer uses Softmax and the others ReLU.
func LoadNetwork(dir string) (*Network, error) {
	paths, err := tableFiles(dir, ".csv")
	if err != nil {
		return nil, err
	}

	net := NewNetwork()
	inputs := -1
	for i, p := range paths {
		output := i == len(paths)-1
		neurons, classes, err := loadLayerFile(p, output)
		if err != nil {
			return nil, err
		}

		width := len(neurons[0].Weights)
		for j, nr := range neurons {
			if len(nr.Weights) != width {
				return nil, fmt.Errorf("%s neuron %d: %w", filepath.Base(p), j, errs.SizeMismatch("weights", len(nr.Weights), width))
			}
		}
		if inputs >= 0 && width != inputs {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), errs.SizeMismatch("layer input", width, inputs))
		}
		inputs = len(neurons)

		activation := ReLU
		if output {
			activation = Softmax
			net.SetClasses(classes)
		}
		if err := net.AddLayer(i, neurons, activation); err != nil {
			return nil, err
		}
	}
	return net, nil
}

func loadLayerFile(path string, output bool) ([]Neuron, []string, error) {
	f, err := openTable(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return loadLayer(f, filepath.Base(path), output)
}

func loadLayer(r io.Reader, name string, output bool) ([]Neuron, []string, error) {
	tb := newTable(name, r)
	minCols := 2
	if output {
		minCols = 3
	}

	var neurons []Neuron
	var classes []string
	for {
		rec, err := tb.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if err := tb.require(rec, minCols, "neuron"); err != nil {
			return nil, nil, err
		}

		if output {
			classes = append(classes, label(rec[len(rec)-1]))
			rec = rec[:len(rec)-1]
		}

		var nr Neuron
		if nr.Bias, err = tb.float(rec, 0, "bias"); err != nil {
			return nil, nil, err
		}
		if nr.Weights, err = tb.floats(rec[1:], "weight"); err != nil {
			return nil, nil, err
		}
		neurons = append(neurons, nr)
	}

	if len(neurons) == 0 {
		return nil, nil, fmt.Errorf("%w: %s has no neurons", errs.ErrFormat, name)
	}
	return neurons, classes, nil
}
