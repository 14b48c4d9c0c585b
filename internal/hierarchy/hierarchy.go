// Package hierarchy derives the manager/report forest from the flat user list.
//
// Subordinate sets come from a single pass over each user's managerId and the
// tree walk keeps a visited set, so dangling references and managerId cycles
// never cause a failure or non-termination.
package hierarchy

import "faultdesk/internal/models"

// Node is one user in the org tree.
type Node struct {
	User    models.User `json:"user"`
	Reports []*Node     `json:"reports,omitempty"`
}

// Forest is the manager-tier view of the organization.
type Forest struct {
	Roots    []*Node       `json:"roots"`
	Floating []models.User `json:"floating"`
	// Detached holds active users reachable from no root, e.g. members of a
	// managerId cycle or USERs whose manager no longer exists.
	Detached []models.User `json:"detached"`
}

// Team is the narrowed view given to a USER: self, own manager and peers.
type Team struct {
	Self    models.User   `json:"self"`
	Manager *models.User  `json:"manager,omitempty"`
	Peers   []models.User `json:"peers"`
}

// Active returns the approved users, preserving order.
func Active(users []models.User) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.IsApproved {
			out = append(out, u)
		}
	}
	return out
}

// Subordinates maps a manager id to its direct reports. Self references are
// ignored.
func Subordinates(users []models.User) map[string][]models.User {
	subs := make(map[string][]models.User)
	for _, u := range users {
		if !u.HasManager() || u.ManagerRef() == u.ID {
			continue
		}
		subs[u.ManagerRef()] = append(subs[u.ManagerRef()], u)
	}
	return subs
}

func index(users []models.User) map[string]models.User {
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID
}

// hasResolvableManager reports whether u's managerId names another user in byID.
func hasResolvableManager(u models.User, byID map[string]models.User) bool {
	if !u.HasManager() || u.ManagerRef() == u.ID {
		return false
	}
	_, ok := byID[u.ManagerRef()]
	return ok
}

// IsRoot reports whether u starts a tree: it is manager-tier or has reports,
// and its manager is unset or does not resolve to another active user.
func IsRoot(u models.User, byID map[string]models.User, subs map[string][]models.User) bool {
	if u.Role == models.RoleUser && len(subs[u.ID]) == 0 {
		return false
	}
	return !hasResolvableManager(u, byID)
}

// IsFloating reports whether u is a USER with no manager and no reports.
func IsFloating(u models.User, subs map[string][]models.User) bool {
	return u.Role == models.RoleUser && !u.HasManager() && len(subs[u.ID]) == 0
}

// Build returns the full forest over the active users.
func Build(users []models.User) Forest {
	active := Active(users)
	byID := index(active)
	subs := Subordinates(active)

	forest := Forest{Roots: []*Node{}, Floating: []models.User{}, Detached: []models.User{}}
	visited := make(map[string]bool, len(active))

	for _, u := range active {
		if IsRoot(u, byID, subs) {
			forest.Roots = append(forest.Roots, grow(u, subs, visited))
		}
	}

	for _, u := range active {
		if visited[u.ID] {
			continue
		}
		if IsFloating(u, subs) {
			forest.Floating = append(forest.Floating, u)
			continue
		}
		forest.Detached = append(forest.Detached, u)
	}

	return forest
}

func grow(u models.User, subs map[string][]models.User, visited map[string]bool) *Node {
	visited[u.ID] = true
	node := &Node{User: u}
	for _, child := range subs[u.ID] {
		if visited[child.ID] {
			continue
		}
		node.Reports = append(node.Reports, grow(child, subs, visited))
	}
	return node
}

// TeamOf returns the narrowed view for viewer over the active users. A viewer
// without a resolvable manager has no peers.
func TeamOf(viewer models.User, users []models.User) Team {
	active := Active(users)
	byID := index(active)

	team := Team{Self: viewer, Peers: []models.User{}}
	if !hasResolvableManager(viewer, byID) {
		return team
	}

	manager := byID[viewer.ManagerRef()]
	team.Manager = &manager
	for _, u := range active {
		if u.ID != viewer.ID && u.ManagerRef() == viewer.ManagerRef() {
			team.Peers = append(team.Peers, u)
		}
	}
	return team
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	total := 1
	for _, r := range n.Reports {
		total += r.Count()
	}
	return total
}
