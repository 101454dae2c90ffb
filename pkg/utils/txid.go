package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateTransactionID returns a best-effort-unique ledger transaction id of
// the form TXN_<unix millis>_<8 random chars>. Collision resistance comes from
// the timestamp plus the random suffix; uniqueness is additionally backed by
// the unique column constraint on payments.transaction_id.
func GenerateTransactionID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("TXN_%d_%s", time.Now().UnixMilli(), suffix)
}
