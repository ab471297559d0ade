// Package pipeline orchestrates chains of tomographic image operators.
//
// A Pipeline owns one run at a time over a DataSource's operator chain and
// any branches reachable through operator child data sources. Structural
// edits to a chain (appending, removing, or re-parameterizing an operator)
// are observed through typed signals and answered by re-running exactly the
// portion of the chain they invalidate, splicing in cached intermediate
// results where an earlier segment is still valid.
//
// All orchestration state is confined to a runloop.Loop: executor completion
// callbacks are marshaled onto it, so chain mutations never race with
// completion handling. Mutate data sources and operators from inside
// Pipeline.Do, or before the pipeline adopts them.
package pipeline
