// SPDX-License-Identifier: MPL-2.0

package enumgen

import (
	"strings"

	"github.com/layergen/layergen/internal/slot"
)

// Member is one rendered enum member.
type Member struct {
	Identifier string
	Index      int
}

// Sanitize maps a slot name to an identifier by replacing every rune outside
// [A-Za-z0-9_] with '_'. The empty name maps to "".
func Sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// Members sanitizes every named slot of s in ascending index order.
// Distinct names that sanitize to the same identifier fail with a
// *CollisionError; no members are returned in that case.
func Members(s slot.Snapshot) ([]Member, error) {
	named := s.Named()
	members := make([]Member, 0, len(named))
	firstSeen := make(map[string]int, len(named)) // identifier -> position in named

	for _, entry := range named {
		id := Sanitize(entry.Name)
		if pos, dup := firstSeen[id]; dup {
			return nil, collision(id, named, pos)
		}
		firstSeen[id] = len(members)
		members = append(members, Member{Identifier: id, Index: entry.Index})
	}
	return members, nil
}

// collision gathers every slot of named that sanitizes to id, starting at
// position first.
func collision(id string, named []slot.Entry, first int) *CollisionError {
	ce := &CollisionError{Identifier: id}
	for _, entry := range named[first:] {
		if Sanitize(entry.Name) == id {
			ce.Slots = append(ce.Slots, entry.Index)
			ce.Names = append(ce.Names, entry.Name)
		}
	}
	return ce
}
