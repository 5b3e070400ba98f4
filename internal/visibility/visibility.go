// Package visibility decides whether a user's online status is exposed to
// a given viewer. The viewer is always an explicit parameter, never
// ambient request state.
package visibility

import "github.com/fernwood/fernwood/internal/database"

// Viewer identifies who is looking. The zero value is an anonymous viewer.
type Viewer struct {
	ID            uint
	Authenticated bool
}

// Anonymous returns an unauthenticated viewer.
func Anonymous() Viewer {
	return Viewer{}
}

// Evaluate decides whether the subject's online status is visible to the
// viewer. subjectOnline is the subject's membership in the online
// registry. Unknown visibility levels fail closed.
func Evaluate(level database.Visibility, viewer Viewer, subjectID uint, subjectOnline bool) bool {
	switch level {
	case database.VisibilityAll:
		return subjectOnline
	case database.VisibilityAuthenticated:
		return subjectOnline && viewer.Authenticated
	case database.VisibilityOwn:
		return viewer.ID == subjectID
	}
	return false
}
