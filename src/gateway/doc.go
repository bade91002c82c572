// Package gateway implements the session protocol of the gateway.
//
// The Session drives a repeating cycle with four phases, defined in the state
// package. Reset rotates the roster generations. Assign broadcasts join
// invitations and enrolls the nodes that answer, serving at most one join
// request per broadcast round. Poll iterates the enrolled nodes in admission
// order and collects a telemetry reading from each. CycleWait sleeps to the
// next fixed-period cycle boundary.
//
// The Messenger is the reliable-delivery layer between the session and the
// raw transceiver: it retransmits a frame a bounded number of times until a
// matching reply arrives. The medium is half-duplex and lossy, so delivery is
// never guaranteed; a failed exchange is abandoned for the node or round and
// retried naturally on the next cycle.
//
// Everything runs in a single goroutine. Listening windows are bounded
// busy-poll loops that yield cooperatively between receive checks, and all
// timing goes through the injectable clock so tests simulate elapsed time.
package gateway
