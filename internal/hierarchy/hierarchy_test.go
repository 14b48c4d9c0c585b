package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultdesk/internal/models"
)

func user(id string, role models.Role, managerID string) models.User {
	u := models.User{ID: id, Username: id, Name: id, Role: role, IsApproved: true}
	if managerID != "" {
		m := managerID
		u.ManagerID = &m
	}
	return u
}

func names(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.User.ID)
	}
	return out
}

func TestBuild_SimpleTree(t *testing.T) {
	users := []models.User{
		user("M", models.RoleManager, ""),
		user("A", models.RoleUser, "M"),
		user("B", models.RoleUser, "M"),
		user("C", models.RoleUser, "A"),
	}

	forest := Build(users)
	require.Len(t, forest.Roots, 1)
	root := forest.Roots[0]
	assert.Equal(t, "M", root.User.ID)
	assert.Equal(t, []string{"A", "B"}, names(root.Reports))
	assert.Equal(t, []string{"C"}, names(root.Reports[0].Reports))
	assert.Empty(t, root.Reports[1].Reports)
	assert.Equal(t, 4, root.Count(), "each user appears exactly once")
	assert.Empty(t, forest.Floating)
	assert.Empty(t, forest.Detached)
}

func TestBuild_CycleTerminates(t *testing.T) {
	users := []models.User{
		user("M", models.RoleManager, "A"),
		user("A", models.RoleUser, "M"),
		user("B", models.RoleUser, "M"),
		user("C", models.RoleUser, "A"),
	}

	forest := Build(users)
	assert.Empty(t, forest.Roots, "cycle members have resolvable managers")
	assert.ElementsMatch(t, []string{"M", "A", "B", "C"}, userIDs(forest.Detached))
}

func TestBuild_CycleBelowRoot(t *testing.T) {
	users := []models.User{
		user("R", models.RoleAdmin, ""),
		user("M", models.RoleManager, "A"),
		user("A", models.RoleUser, "M"),
		user("X", models.RoleUser, "R"),
	}

	forest := Build(users)
	require.Len(t, forest.Roots, 1)
	assert.Equal(t, 2, forest.Roots[0].Count())
	assert.ElementsMatch(t, []string{"M", "A"}, userIDs(forest.Detached))
}

func TestBuild_DanglingManagerIsRoot(t *testing.T) {
	users := []models.User{
		user("M", models.RoleManager, "gone"),
		user("A", models.RoleUser, "M"),
	}
	forest := Build(users)
	require.Len(t, forest.Roots, 1)
	assert.Equal(t, "M", forest.Roots[0].User.ID)
}

func TestBuild_InactiveManagerIsTreatedAsMissing(t *testing.T) {
	inactive := user("Boss", models.RoleManager, "")
	inactive.IsApproved = false
	users := []models.User{
		inactive,
		user("Lead", models.RoleUser, "Boss"),
		user("Dev", models.RoleUser, "Lead"),
	}

	forest := Build(users)
	require.Len(t, forest.Roots, 1)
	assert.Equal(t, "Lead", forest.Roots[0].User.ID, "a USER with reports and no active manager is a root")
	assert.Equal(t, []string{"Dev"}, names(forest.Roots[0].Reports))
}

func TestBuild_FloatingAndSelfReference(t *testing.T) {
	users := []models.User{
		user("F", models.RoleUser, ""),
		user("S", models.RoleManager, "S"),
	}

	forest := Build(users)
	assert.Equal(t, []string{"F"}, userIDs(forest.Floating))
	require.Len(t, forest.Roots, 1)
	assert.Equal(t, "S", forest.Roots[0].User.ID, "self reference does not resolve to another user")
}

func TestIsFloating(t *testing.T) {
	subs := Subordinates([]models.User{user("A", models.RoleUser, "L")})
	assert.True(t, IsFloating(user("X", models.RoleUser, ""), subs))
	assert.False(t, IsFloating(user("L", models.RoleUser, ""), subs), "has a report")
	assert.False(t, IsFloating(user("A", models.RoleUser, "L"), subs), "has a manager")
	assert.False(t, IsFloating(user("M", models.RoleManager, ""), subs))
}

func TestTeamOf(t *testing.T) {
	users := []models.User{
		user("M", models.RoleManager, ""),
		user("A", models.RoleUser, "M"),
		user("B", models.RoleUser, "M"),
		user("C", models.RoleUser, "A"),
		user("D", models.RoleUser, "other"),
	}

	team := TeamOf(users[1], users)
	require.NotNil(t, team.Manager)
	assert.Equal(t, "M", team.Manager.ID)
	assert.Equal(t, []string{"B"}, userIDs(team.Peers))

	lonely := TeamOf(users[4], users)
	assert.Nil(t, lonely.Manager)
	assert.Empty(t, lonely.Peers)

	top := TeamOf(users[0], users)
	assert.Nil(t, top.Manager)
	assert.Empty(t, top.Peers)
}

func userIDs(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}
