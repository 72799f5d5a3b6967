package models

// ProjectUpdate is the allow-list of fields an owner may change. Nil fields
// are left untouched.
type ProjectUpdate struct {
	Title           *string
	Description     *string
	Category        *[]string
	Technologies    *[]string
	LiveDemoURL     *string
	ProjectImageURL *string
}

func (u ProjectUpdate) IsEmpty() bool {
	return u.Title == nil &&
		u.Description == nil &&
		u.Category == nil &&
		u.Technologies == nil &&
		u.LiveDemoURL == nil &&
		u.ProjectImageURL == nil
}
