package rotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

func TestRotate_CyclicLeftShift(t *testing.T) {
	got := Rotate([]string{"1", "2", "3", "4", "5", "6"})
	assert.Equal(t, []string{"2", "3", "4", "5", "6", "1"}, got)
}

func TestRotate_SixTimesIsIdentity(t *testing.T) {
	orig := []string{"a", "b", "c", "d", "e", "f"}
	ids := orig
	for i := 0; i < match.CourtPositions; i++ {
		ids = Rotate(ids)
		if i < match.CourtPositions-1 {
			assert.NotEqual(t, orig, ids, "rotation %d", i+1)
		}
	}
	assert.Equal(t, orig, ids)
}

func TestRotate_DoesNotMutateInput(t *testing.T) {
	in := []string{"a", "b", "c", "d", "e", "f"}
	_ = Rotate(in)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, in)
}

func TestRotate_WrongLengthUnchanged(t *testing.T) {
	for _, in := range [][]string{nil, {}, {"a", "b", "c"}, {"a", "b", "c", "d", "e", "f", "g"}} {
		assert.Equal(t, in, Rotate(in))
	}
}

func roles(m map[string]match.Role) func(string) match.Role {
	return func(id string) match.Role { return m[id] }
}

func TestLiberoView_ReplacesBackRowMiddle(t *testing.T) {
	base := []string{"s", "oh1", "mb1", "opp", "oh2", "mb2"}
	roleOf := roles(map[string]match.Role{
		"s": match.RoleSetter, "oh1": match.RoleOutside, "mb1": match.RoleMiddle,
		"opp": match.RoleOpposite, "oh2": match.RoleOutside, "mb2": match.RoleMiddle,
	})

	view := LiberoView(base, "lib", false, roleOf)
	assert.Equal(t, "mb2", view.Replaced)
	assert.Equal(t, 6, view.Position)
	assert.Equal(t, []string{"s", "oh1", "mb1", "opp", "oh2", "lib"}, view.Slots)

	// canonical rotation untouched
	assert.Equal(t, []string{"s", "oh1", "mb1", "opp", "oh2", "mb2"}, base)
}

func TestLiberoView_MiddleServingKeepsServe(t *testing.T) {
	base := []string{"mb1", "oh1", "s", "mb2", "opp", "oh2"}
	roleOf := roles(map[string]match.Role{"mb1": match.RoleMiddle, "mb2": match.RoleMiddle})

	serving := LiberoView(base, "lib", true, roleOf)
	assert.Empty(t, serving.Replaced)
	assert.Equal(t, base, serving.Slots)

	receiving := LiberoView(base, "lib", false, roleOf)
	require.Equal(t, "mb1", receiving.Replaced)
	assert.Equal(t, 1, receiving.Position)
	assert.Equal(t, "lib", receiving.Slots[0])
}

func TestLiberoView_NoLiberoOrNoMiddle(t *testing.T) {
	base := []string{"a", "b", "c", "d", "e", "f"}
	roleOf := roles(map[string]match.Role{})

	assert.Equal(t, View{Slots: base}, LiberoView(base, "", false, roleOf))
	assert.Equal(t, View{Slots: base}, LiberoView(base, "lib", false, roleOf))
	assert.Empty(t, LiberoView(nil, "lib", false, roleOf).Slots)
}

func TestIsBackRow(t *testing.T) {
	assert.True(t, IsBackRow(1))
	assert.True(t, IsBackRow(5))
	assert.True(t, IsBackRow(6))
	assert.False(t, IsBackRow(2))
	assert.False(t, IsBackRow(3))
	assert.False(t, IsBackRow(4))
}

func TestCourtView_FollowsServingSide(t *testing.T) {
	roleOf := roles(map[string]match.Role{"mb1": match.RoleMiddle, "mb2": match.RoleMiddle})
	s := match.NewState("m1", match.Home)
	s.Rotation = []string{"mb1", "oh1", "s", "mb2", "opp", "oh2"}
	s.LiberoID = "lib"

	s.ServingSide = match.Opponent
	assert.Equal(t, 1, CourtView(s, roleOf).Position)

	s.ServingSide = match.Our
	view := CourtView(s, roleOf)
	assert.Empty(t, view.Replaced, "the server keeps the serve and no other middle is back")
	assert.Equal(t, s.Rotation, view.Slots)
}
