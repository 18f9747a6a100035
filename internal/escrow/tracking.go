package escrow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateTrackingID builds the opaque public identifier for a transaction.
// Format: TRK-{8 random hex}-{6 timestamp digits}-{6 hash chars}. It is the
// only identifier exposed outside the service; internal uuids never leave.
func GenerateTrackingID(variantID, buyerID, sellerID uuid.UUID, now time.Time) string {
	unique := strings.ToUpper(uuid.NewString()[:8])

	ts := fmt.Sprintf("%d", now.Unix())
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%s-%s-%s-%s", variantID, buyerID, sellerID, ts)))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))[:6]

	return fmt.Sprintf("TRK-%s-%s-%s", unique, ts, digest)
}
