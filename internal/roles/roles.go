package roles

// Role is the closed set of caller roles. Authorization decisions branch on
// this type only, never on raw strings from the token.
type Role string

const (
	Admin     Role = "admin"
	Professor Role = "professor"
	Student   Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case Admin, Professor, Student:
		return true
	}
	return false
}

// Action is a capability a caller may hold.
type Action string

const (
	SubmitReview     Action = "review:submit"
	EditOwnReview    Action = "review:edit-own"
	EditReviewText   Action = "review:edit-text" // moderation edit, rating untouched
	DeleteOwnReview  Action = "review:delete-own"
	DeleteAnyReview  Action = "review:delete-any"
	CommentOnReview  Action = "comment:add"
	EditOwnComment   Action = "comment:edit-own"
	ModerateComment  Action = "comment:moderate"
	ManageOwnCourses Action = "course:manage-own"
	ManageAudit      Action = "audit:manage"
)

var capabilities = map[Role]map[Action]bool{
	Admin: {
		EditReviewText:  true,
		DeleteAnyReview: true,
		CommentOnReview: true,
		EditOwnComment:  true,
		ModerateComment: true,
		ManageAudit:     true,
	},
	Professor: {
		CommentOnReview:  true,
		EditOwnComment:   true,
		ManageOwnCourses: true,
	},
	Student: {
		SubmitReview:    true,
		EditOwnReview:   true,
		DeleteOwnReview: true,
		CommentOnReview: true,
		EditOwnComment:  true,
	},
}

// Can reports whether the role holds the given capability.
func Can(r Role, a Action) bool {
	return capabilities[r][a]
}
