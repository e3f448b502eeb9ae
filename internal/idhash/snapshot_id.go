package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeSnapshotID computes a deterministic snapshot_id.
// Formula: base58(SHA256(account_id|scenario_id|as_of))
func ComputeSnapshotID(accountID, scenarioID, asOf string) string {
	data := fmt.Sprintf("%s|%s|%s", accountID, scenarioID, asOf)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
