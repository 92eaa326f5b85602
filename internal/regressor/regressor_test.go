package regressor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/tripduration/internal/domain"
)

func TestDecodeLinear(t *testing.T) {
	data := []byte(`{"type":"linear","feature_names":["a","b"],"intercept":1.5,"coefficients":[2,-1]}`)
	m, err := Decode(data, Options{})
	require.NoError(t, err)

	out, err := m.Predict(context.Background(), [][]float64{{1, 1}, {0, 3}})
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5, -1.5}, out)

	namer, ok := m.(domain.FeatureNamer)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, namer.FeatureNames())
	assert.Equal(t, TypeLinear, m.(domain.ModelDescriber).ModelType())
}

func TestLinearRejectsWrongWidth(t *testing.T) {
	m, err := NewLinear(nil, 0, []float64{1, 2, 3})
	require.NoError(t, err)

	_, err = m.Predict(context.Background(), [][]float64{{1, 2}})
	assert.Error(t, err)
	assert.Nil(t, m.FeatureNames())
}

func TestDecodeRejectsBadArtifacts(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown type", `{"type":"svm"}`},
		{"names and coefficients disagree", `{"type":"linear","feature_names":["a"],"coefficients":[1,2]}`},
		{"n_features_in disagrees", `{"type":"linear","feature_names":["a"],"n_features_in":3,"coefficients":[1]}`},
		{"tree without width", `{"type":"tree_ensemble","trees":[{"nodes":[{"leaf":true,"value":1}]}]}`},
		{"tree child out of range", `{"type":"tree_ensemble","n_features_in":1,"trees":[{"nodes":[{"feature":0,"threshold":0,"left":1,"right":5}]}]}`},
		{"tree cycle", `{"type":"tree_ensemble","n_features_in":1,"trees":[{"nodes":[{"feature":0,"threshold":0,"left":0,"right":0}]}]}`},
		{"tree feature out of range", `{"type":"tree_ensemble","n_features_in":1,"trees":[{"nodes":[{"feature":2,"left":1,"right":1},{"leaf":true}]}]}`},
		{"remote without endpoint", `{"type":"remote"}`},
		{"not json", `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), Options{})
			assert.Error(t, err)
		})
	}
}

func stump(threshold, left, right float64) Tree {
	return Tree{Nodes: []Node{
		{Feature: 0, Threshold: threshold, Left: 1, Right: 2},
		{Leaf: true, Value: left},
		{Leaf: true, Value: right},
	}}
}

func TestTreeEnsembleSum(t *testing.T) {
	m, err := NewTreeEnsemble([]string{"x"}, 1, 6, 0.5, "sum", []Tree{stump(1, -2, 2), stump(3, 0, 4)})
	require.NoError(t, err)

	out, err := m.Predict(context.Background(), [][]float64{{0}, {1}, {2}, {5}})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5, 7, 9}, out)
}

func TestTreeEnsembleMean(t *testing.T) {
	m, err := NewTreeEnsemble(nil, 1, 0, 0, "mean", []Tree{stump(1, 2, 4), stump(1, 4, 8)})
	require.NoError(t, err)

	out, err := m.Predict(context.Background(), [][]float64{{0}, {2}})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6}, out)
	assert.Nil(t, m.FeatureNames())
}

func TestTreeEnsembleHonoursCancellation(t *testing.T) {
	m, err := NewTreeEnsemble(nil, 1, 0, 1, "", []Tree{stump(1, 2, 4)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Predict(ctx, [][]float64{{0}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMLBridgePredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/predict":
			var req bridgeRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, []string{"a", "b"}, req.FeatureNames)
			preds := make([]float64, len(req.Rows))
			for i, row := range req.Rows {
				preds[i] = row[0] + row[1]
			}
			_ = json.NewEncoder(w).Encode(bridgeResponse{Predictions: preds})
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	m, err := Decode([]byte(`{"type":"remote","feature_names":["a","b"]}`), Options{RemoteURL: srv.URL + "/"})
	require.NoError(t, err)

	out, err := m.Predict(context.Background(), [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 7}, out)

	bridge := m.(*MLBridge)
	assert.NoError(t, bridge.Health(context.Background()))
}

func TestMLBridgeSurfacesFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/predict" {
			_ = json.NewEncoder(w).Encode(bridgeResponse{Predictions: []float64{1}})
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	bridge := NewMLBridge(srv.URL, nil, nil)

	_, err := bridge.Predict(context.Background(), [][]float64{{1}, {2}})
	assert.ErrorContains(t, err, "got 1 predictions for 2 rows")
	assert.Error(t, bridge.Health(context.Background()))
}
