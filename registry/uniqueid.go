package registry

import "github.com/google/uuid"

// DeriveUniqueID produces a stable UniqueID for a device handle from a
// seed that identifies the physical device -- typically its serial
// device path or a vendor serial number (spec.md §3: "unique_id is a
// stable string ... so clients may pin to the same physical device
// across index reorderings"). The same seed always yields the same ID,
// so a device keeps its identity across restarts even though nothing
// about its configuration is persisted.
func DeriveUniqueID(seed string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}
