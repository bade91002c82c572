// Package roster tracks the sensor nodes enrolled with the gateway.
//
// The roster holds three generations of node records. The current generation
// contains the nodes admitted or re-admitted during the running cycle, in
// admission order. The previous generation is a wholesale snapshot of the
// current generation taken when the cycle was reset; it is never mutated
// incrementally, and is used to classify an arriving node as returning rather
// than new. The new generation is the subset of the current generation whose
// ids were absent from the previous one.
//
// Nodes are identified by an 8-bit id which they claim themselves when they
// request to join; the id is unique within a generation. The current
// generation is capacity-bounded: once it is full, further admissions are
// rejected, but existing nodes can still be updated. Records are never
// removed individually; the whole generation is replaced at the next reset.
//
// The roster is written exclusively by the session goroutine. The embedded
// read-write mutex exists for concurrent readers, such as the HTTP service.
package roster
