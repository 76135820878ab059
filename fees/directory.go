package fees

import (
	"strings"

	"github.com/warp/fee-engine/core"
)

// Member is a timesheet author resolved against the user directory.
type Member struct {
	Email string
	Name  string
	Role  string
	Grade Grade
	Group RoleGroup
}

// Directory resolves emails to grades and role groups. Lookups are
// case-insensitive. The zero Directory resolves nobody.
type Directory struct {
	users map[string]core.User
}

func NewDirectory(users []core.User) Directory {
	d := Directory{users: make(map[string]core.User, len(users))}
	for _, u := range users {
		key := normalizeEmail(u.Email)
		if key == "" {
			continue
		}
		if _, dup := d.users[key]; dup {
			continue
		}
		d.users[key] = u
	}
	return d
}

// Resolve always returns a member. Unknown authors cost as Executive and
// bucket as Administrators, named by their email.
func (d Directory) Resolve(email string) Member {
	u, ok := d.users[normalizeEmail(email)]
	if !ok {
		return Member{
			Email: email,
			Name:  email,
			Grade: GradeForRole(""),
			Group: RoleGroupForRole(""),
		}
	}
	name := u.FullName
	if strings.TrimSpace(name) == "" {
		name = u.Email
	}
	return Member{
		Email: u.Email,
		Name:  name,
		Role:  u.Role,
		Grade: GradeForRole(u.Role),
		Group: RoleGroupForRole(u.Role),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
