// Copyright 2025 Lattice ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers a sequential inference model is
// assembled from.
//
// # Overview
//
// Concrete layers cover the convolutional stack: Conv2D, Dense,
// MaxPooling2D, AveragePooling2D, GlobalMaxPooling2D,
// GlobalAveragePooling2D, Activation, and Flatten. All of them satisfy
// the Layer interface the model engine drives; Conv2D and Dense also
// satisfy WeightBearer. Xavier, Zeros, Ones, and Randn initialize
// weight tensors for layers built without a checkpoint.
//
// # Basic Usage
//
//	import (
//	    "github.com/lattice-ml/lattice/nn"
//	    "github.com/lattice-ml/lattice/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    conv, _ := nn.NewConv2D(nn.Conv2DConfig{
//	        Filters:    8,
//	        KernelSize: [2]int{3, 3},
//	        Activation: "relu",
//	        InChannels: 1,
//	    }, backend)
//
//	    pool, _ := nn.NewMaxPooling2D[*cpu.Backend](nn.PoolingConfig{})
//
//	    out, err := conv.Call(input)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    out, err = pool.Call(out)
//	}
//
// # Layer Contract
//
// Every layer implements the Layer interface: Call computes the output
// for an input tensor and returns an error instead of panicking when the
// input cannot be processed. Two error classes exist:
//
//   - ErrInvalidConfiguration: the layer was built with configuration
//     that can never work, or weights were never installed
//   - ErrDimension (carried by *DimensionError): the input's geometry is
//     unusable, e.g. a pooling window larger than the input
//
// Both are matched with errors.Is.
//
// # Weights
//
// Layers with learned parameters (Conv2D, Dense) additionally implement
// WeightBearer: weights move in and out as maps keyed by parameter name
// ("kernel", "bias"). The model package routes qualified names like
// "conv1.kernel" to the right layer.
//
// # Configuration Vocabulary
//
// Layer config structs follow the Keras field vocabulary (pool_size,
// strides, padding, data_format, filters, units), so architecture JSON
// exported from Keras decodes directly onto them.
package nn
