package apply

import (
	"fmt"
	"os/user"
	"strconv"
)

// lookupIDs resolves user and group names to numeric IDs. An empty name
// yields -1, which leaves that ID unchanged.
func lookupIDs(owner, group string) (int, int, error) {
	uid, gid := -1, -1

	if owner != "" {
		u, err := user.Lookup(owner)
		if err != nil {
			return 0, 0, err
		}

		if uid, err = strconv.Atoi(u.Uid); err != nil {
			return 0, 0, fmt.Errorf("user %s has non-numeric uid %q", owner, u.Uid)
		}
	}

	if group != "" {
		g, err := user.LookupGroup(group)
		if err != nil {
			return 0, 0, err
		}

		if gid, err = strconv.Atoi(g.Gid); err != nil {
			return 0, 0, fmt.Errorf("group %s has non-numeric gid %q", group, g.Gid)
		}
	}

	return uid, gid, nil
}
