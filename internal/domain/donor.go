package domain

import "strings"

const anonymousDisplayName = "Anonymous"

// Donor identifies who gave. It is either a RegisteredDonor or a GuestDonor.
type Donor interface {
	isDonor()
}

// RegisteredDonor is an authenticated member of the church site.
type RegisteredDonor struct {
	UserID   string
	FullName string
}

// GuestDonor is someone who gave without signing in.
type GuestDonor struct {
	Name  string
	Email string
	Phone string
}

func (RegisteredDonor) isDonor() {}
func (GuestDonor) isDonor()      {}

// DisplayName returns the public name for a donor, honoring anonymity.
func DisplayName(d Donor, anonymous bool) string {
	if anonymous {
		return anonymousDisplayName
	}

	var name string
	switch v := d.(type) {
	case RegisteredDonor:
		name = v.FullName
	case GuestDonor:
		name = v.Name
	}

	if strings.TrimSpace(name) == "" {
		return anonymousDisplayName
	}
	return name
}

// UserID returns the registered user id, or "" for guests.
func UserID(d Donor) string {
	if r, ok := d.(RegisteredDonor); ok {
		return r.UserID
	}
	return ""
}
