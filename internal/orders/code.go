package orders

import (
	"fmt"
	"math/rand"
)

// NewCode draws a human-readable order code: "EH-" plus seven random
// digits. Uniqueness is enforced by the store; on collision the engine
// draws again.
func NewCode() string {
	return fmt.Sprintf("EH-%d", 1000000+rand.Intn(9000000))
}
