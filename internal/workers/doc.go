// Package workers sizes the decode worker pool.
//
// Go sets GOMAXPROCS from the container CPU quota, while runtime.NumCPU
// still reports the host's CPUs. Decoding and scaling photos is CPU bound,
// so the pool follows GOMAXPROCS:
//
//	n := workers.ForCPU(8) // one worker per available CPU, at most 8
//
// DECODE_WORKERS overrides the computed value (still capped by the limit).
package workers
