package rules

import (
	"crypto/sha256"
	"encoding/hex"

	"laderr/internal/model"
)

// resilienceID mints the deterministic identifier for a Resilience node
// synthesized by R5 (spec section 3.4 and 4.6): a stable hash of the
// 5-tuple (o1,c1,c2,c3,v) under baseURI, so that repeated runs over equal
// inputs produce identical graphs (spec section 8, P6).
func resilienceID(baseURI string, o1, c1, c2, c3, v model.Term) model.Term {
	h := sha256.New()
	for _, t := range []model.Term{o1, c1, c2, c3, v} {
		h.Write([]byte(t.Value()))
		h.Write([]byte{0})
	}
	sum := hex.EncodeToString(h.Sum(nil))[:16]
	return model.ID(baseURI + "Resilience_" + sum)
}
