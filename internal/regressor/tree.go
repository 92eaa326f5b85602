package regressor

import (
	"context"
	"fmt"
)

// Node is one node of a regression tree. Rows with x[Feature] <= Threshold go left.
type Node struct {
	Leaf      bool    `json:"leaf"`
	Feature   int     `json:"feature" validate:"gte=0"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Tree is a flattened regression tree rooted at node 0
type Tree struct {
	Nodes []Node `json:"nodes" validate:"required,min=1,dive"`
}

func (t Tree) eval(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// check rejects out-of-range references and cycles so eval always terminates
func (t Tree) check(width int) error {
	state := make([]uint8, len(t.Nodes))
	var visit func(i int) error
	visit = func(i int) error {
		if i < 0 || i >= len(t.Nodes) {
			return fmt.Errorf("child index %d out of range", i)
		}
		switch state[i] {
		case 1:
			return fmt.Errorf("cycle through node %d", i)
		case 2:
			return nil
		}
		state[i] = 1
		n := t.Nodes[i]
		if !n.Leaf {
			if n.Feature >= width {
				return fmt.Errorf("node %d splits on feature %d of %d", i, n.Feature, width)
			}
			if err := visit(n.Left); err != nil {
				return err
			}
			if err := visit(n.Right); err != nil {
				return err
			}
		}
		state[i] = 2
		return nil
	}
	return visit(0)
}

// TreeEnsemble is a boosted (sum) or bagged (mean) collection of regression trees
type TreeEnsemble struct {
	names        []string
	width        int
	baseScore    float64
	learningRate float64
	mean         bool
	trees        []Tree
}

// NewTreeEnsemble validates every tree against the feature width
func NewTreeEnsemble(names []string, width int, baseScore, learningRate float64, aggregation string, trees []Tree) (*TreeEnsemble, error) {
	if width <= 0 {
		return nil, fmt.Errorf("regressor: tree ensemble needs feature_names or n_features_in")
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("regressor: tree ensemble has no trees")
	}
	for i, t := range trees {
		if err := t.check(width); err != nil {
			return nil, fmt.Errorf("regressor: tree %d: %w", i, err)
		}
	}
	if learningRate == 0 {
		learningRate = 1
	}
	return &TreeEnsemble{
		names:        append([]string(nil), names...),
		width:        width,
		baseScore:    baseScore,
		learningRate: learningRate,
		mean:         aggregation == "mean",
		trees:        trees,
	}, nil
}

func (m *TreeEnsemble) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	return predictRows(ctx, rows, m.width, func(row []float64) float64 {
		var sum float64
		for _, t := range m.trees {
			sum += t.eval(row)
		}
		if m.mean {
			return m.baseScore + sum/float64(len(m.trees))
		}
		return m.baseScore + m.learningRate*sum
	})
}

func (m *TreeEnsemble) FeatureNames() []string {
	if len(m.names) == 0 {
		return nil
	}
	return append([]string(nil), m.names...)
}

func (m *TreeEnsemble) ModelType() string { return TypeTreeEnsemble }
