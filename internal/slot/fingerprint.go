// SPDX-License-Identifier: MPL-2.0

package slot

import (
	"strconv"
	"strings"
)

// Fingerprint is the comparable summary of a Snapshot. Two fingerprints are
// equal exactly when the snapshots bind the same name to every slot.
type Fingerprint string

// Fingerprint encodes every slot name, quoted, in index order. Quoting makes
// the encoding injective: no name can forge a delimiter, so equal
// fingerprints always mean equal snapshots.
func (s Snapshot) Fingerprint() Fingerprint {
	var sb strings.Builder
	for i, name := range s.names {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Quote(name))
	}
	return Fingerprint(sb.String())
}

// String returns the raw fingerprint text.
func (f Fingerprint) String() string { return string(f) }
