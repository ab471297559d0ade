// Package executor runs operator chains over voxel buffers on background
// goroutines.
//
// Executor implements the pipeline.Executor interface: each Run call
// applies an operator sub-sequence to its input buffer and yields a
// cancellable future. Runs are traced and measured with OpenTelemetry.
//
//	exec, err := executor.New(executor.Config{})
//	p := pipeline.New(root, exec)
package executor
