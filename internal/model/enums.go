package model

// Direction says which way a message traveled between the student and the
// admin. The string values are the wire values owned by the backend; the
// misspelling of "recieved" is the backend's and must be preserved.
type Direction string

const (
	DirectionToAdmin   Direction = "sent"
	DirectionToStudent Direction = "recieved"
)

func (d Direction) Valid() bool {
	return d == DirectionToAdmin || d == DirectionToStudent
}

// DirectionFor returns the direction of a message authored by the given role.
func DirectionFor(sender Role) Direction {
	if sender == RoleAdmin {
		return DirectionToStudent
	}
	return DirectionToAdmin
}

// Mine reports whether a message with this direction was authored by the
// viewer. Display layers map direction to mine/theirs through here instead of
// comparing wire strings, so the same conversation renders correctly on both
// sides.
func (d Direction) Mine(viewer Role) bool {
	return d == DirectionFor(viewer)
}
