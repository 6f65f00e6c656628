package model

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/lattice-ml/lattice/internal/loader"
	"github.com/lattice-ml/lattice/internal/nn"
	"github.com/lattice-ml/lattice/internal/tensor"
)

// LoadWeights installs tensors into the model's layers.
//
// Keys are qualified "layer.parameter" names; the segment after the
// last dot is the parameter, everything before it the layer. Names
// that resolve to no layer, or to a layer without parameters, are
// errors: a silently dropped weight is a wrong prediction later.
//
// Layers absent from the map keep their current weights, so partial
// checkpoints load into models whose remaining layers were
// initialized at construction. Each weight-bearing layer the map
// skips is logged as a warning.
func (m *Model[B]) LoadWeights(weights map[string]*tensor.RawTensor) error {
	groups := make(map[string]map[string]*tensor.RawTensor)
	for name, raw := range weights {
		dot := strings.LastIndex(name, ".")
		if dot <= 0 || dot == len(name)-1 {
			return fmt.Errorf("model %s: weight name %q is not layer.parameter", m.name, name)
		}
		layerName, param := name[:dot], name[dot+1:]
		group := groups[layerName]
		if group == nil {
			group = make(map[string]*tensor.RawTensor)
			groups[layerName] = group
		}
		group[param] = raw
	}

	// Deterministic install order.
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, layerName := range names {
		pos, ok := m.index[layerName]
		if !ok {
			return fmt.Errorf("model %s: weights reference unknown layer %q", m.name, layerName)
		}
		bearer, ok := m.layers[pos].(nn.WeightBearer[B])
		if !ok {
			return fmt.Errorf("model %s: layer %q takes no weights", m.name, layerName)
		}
		if err := bearer.SetWeights(groups[layerName]); err != nil {
			return fmt.Errorf("model %s: layer %q: %w", m.name, layerName, err)
		}
	}
	for _, layer := range m.layers {
		if _, ok := layer.(nn.WeightBearer[B]); !ok {
			continue
		}
		if _, ok := groups[layer.Name()]; !ok {
			klog.Warningf("Model %s: layer %q received no weights", m.name, layer.Name())
		}
	}
	return nil
}

// LoadWeightsFile loads weights from a .safetensors checkpoint or a
// .latc archive into the model.
//
// Tensors are read concurrently; the first failure cancels the
// remaining reads. Foreign weight names are translated to canonical
// form by the loader before routing.
func (m *Model[B]) LoadWeightsFile(path string) error {
	reader, err := loader.OpenModel(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = reader.Close() }()

	start := time.Now()
	names := reader.TensorNames()
	loaded := make([]*tensor.RawTensor, len(names))

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.NumCPU())
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := reader.LoadTensor(name, m.backend)
			if err != nil {
				return fmt.Errorf("load tensor %s: %w", name, err)
			}
			loaded[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	weights := make(map[string]*tensor.RawTensor, len(names))
	for i, name := range names {
		weights[name] = loaded[i]
	}

	klog.V(1).Infof("Loaded %d tensors from %s (%s, %s names) in %v",
		len(names), path, reader.Format(), reader.Convention(), time.Since(start))

	return m.LoadWeights(weights)
}
