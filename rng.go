// rng.go - lazily-seeded RNG for the RND opcode

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/zotley/vmx25
License: GPLv3 or later
*/

package main

import (
	"math/rand"
	"time"
)

// vmRand owns a RND-only random source, seeded once on first use from
// wall-clock time and never reseeded, per the spec's "owned by the VM
// struct, not process-global" design note. No third-party RNG library
// appears anywhere in the retrieval pack, so math/rand is used
// directly rather than introducing an unwitnessed dependency.
type vmRand struct {
	src  *rand.Rand
	seen bool
}

func (r *vmRand) intn(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	if !r.seen {
		r.src = rand.New(rand.NewSource(time.Now().UnixNano()))
		r.seen = true
	}
	return uint32(r.src.Int63n(int64(n)))
}
