package kv

import "fmt"

// AnyVersion relaxes version equality the same way a wildcard does.
const AnyVersion int64 = -1

// Reference identifies one version of a row (or of an index entry, where
// GUID is the secondary key).
//
// A Reference read from the store stays valid only until that row's
// version changes; mutations presenting a stale Reference are rejected
// with ConcurrentModification.
type Reference struct {
	Version  int64
	GUID     GUID
	Wildcard bool
}

// NewReference returns an exact reference.
func NewReference(version int64, guid GUID) Reference {
	return Reference{Version: version, GUID: guid}
}

// Wild returns the wildcard reference, which matches anything.
func Wild() Reference {
	return Reference{Wildcard: true}
}

// Matches reports whether r and other designate the same row state.
// A wildcard on either side matches everything; AnyVersion on either
// side matches every version of the same GUID.
func (r Reference) Matches(other Reference) bool {
	if r.Wildcard || other.Wildcard {
		return true
	}
	if r.GUID != other.GUID {
		return false
	}
	return r.Version == AnyVersion || other.Version == AnyVersion || r.Version == other.Version
}

// Less orders references by GUID then version.
func (r Reference) Less(other Reference) bool {
	if c := r.GUID.Compare(other.GUID); c != 0 {
		return c < 0
	}
	return r.Version < other.Version
}

func (r Reference) String() string {
	if r.Wildcard {
		return "*"
	}
	if r.Version == AnyVersion {
		return fmt.Sprintf("%s@any", r.GUID)
	}
	return fmt.Sprintf("%s@%d", r.GUID, r.Version)
}
