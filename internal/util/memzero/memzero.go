package memzero

import "crypto/subtle"

// Zero overwrites b with zeros in a constant-time friendly way. Best
// effort: Go gives no guarantee about copies the runtime already made.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	zero := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zero)
}

// ZeroAll wipes every slice passed. Convenient on error paths that have
// materialized more than one secret.
func ZeroAll(bufs ...[]byte) {
	for _, b := range bufs {
		Zero(b)
	}
}
