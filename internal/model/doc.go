// Package model implements the inference engine that sequences layers
// into a runnable pipeline.
//
// A Model is an ordered list of layers sharing one backend. Models are
// assembled programmatically with Add or decoded from architecture
// JSON with FromConfig; weights arrive from a SafeTensors checkpoint
// or a native .latc archive and are routed to the weight-bearing
// layers by qualified name ("conv1.kernel" -> layer "conv1",
// parameter "kernel").
//
// Example:
//
//	backend := cpu.New()
//	m, err := model.FromConfig(archJSON, backend)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := m.LoadWeightsFile("weights.safetensors"); err != nil {
//		log.Fatal(err)
//	}
//	out, err := m.Predict(input)
//
// Architecture JSON follows the Keras layer vocabulary:
//
//	{
//	  "name": "mnist",
//	  "layers": [
//	    {"class_name": "Conv2D", "config": {"name": "conv1", "filters": 8, "kernel_size": [3, 3], "activation": "relu"}},
//	    {"class_name": "MaxPooling2D", "config": {"name": "pool1", "pool_size": [2, 2]}},
//	    {"class_name": "Flatten", "config": {"name": "flatten"}},
//	    {"class_name": "Dense", "config": {"name": "output", "units": 10, "activation": "softmax"}}
//	  ]
//	}
package model
