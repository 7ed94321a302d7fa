package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	entities map[Kind][]Entity
	err      error
}

func (f *fakeSource) ListEntities(ctx context.Context, kind Kind) ([]Entity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entities[kind], nil
}

func TestNew_IndexesAliasesPerKind(t *testing.T) {
	r, err := New("bye00",
		Entity{ID: "bye00", Kind: Team},
		Entity{ID: "duke01", Kind: Team, Aliases: []string{"Duke", "DUKE"}},
		Entity{ID: "unc01", Kind: Team, Aliases: []string{"North Carolina", "UNC"}},
		Entity{ID: "p1", Kind: Picker, Aliases: []string{"Duke"}},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"duke01"}, r.Lookup(Team, "Duke"))
	assert.Equal(t, []string{"duke01"}, r.Lookup(Team, "DUKE"))
	assert.Equal(t, []string{"unc01"}, r.Lookup(Team, "UNC"))
	assert.Equal(t, []string{"p1"}, r.Lookup(Picker, "Duke"), "kinds are indexed separately")
	assert.Empty(t, r.Lookup(Team, "duke"), "lookup is exact")
	assert.Equal(t, "bye00", r.Bye())
	assert.Equal(t, 4, r.Len(Team))
	assert.Equal(t, 1, r.Len(Picker))
}

func TestNew_SharedAliasMapsToEveryOwner(t *testing.T) {
	r, err := New("bye00",
		Entity{ID: "bye00", Kind: Team},
		Entity{ID: "usc-trojans", Kind: Team, Aliases: []string{"USC", "Southern Cal"}},
		Entity{ID: "usc-gamecocks", Kind: Team, Aliases: []string{"USC", "South Carolina"}},
		Entity{ID: "usc-trojans", Kind: Team, Aliases: []string{"USC"}},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"usc-gamecocks", "usc-trojans"}, r.Lookup(Team, "USC"))
	assert.Equal(t, []string{"USC"}, r.Ambiguous(Team))
	assert.Empty(t, r.Ambiguous(Picker))
}

func TestNew_Rejects(t *testing.T) {
	_, err := New("")
	assert.Error(t, err, "bye id is required")

	_, err = New("bye00", Entity{ID: "x", Kind: Kind("coach")})
	assert.Error(t, err, "unknown kind")

	_, err = New("bye00", Entity{Kind: Team, Aliases: []string{"Nobody"}})
	assert.Error(t, err, "empty id")
}

func TestNew_ByeMustBeATeam(t *testing.T) {
	_, err := New("bye00", Entity{ID: "duke01", Kind: Team, Aliases: []string{"Duke"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bye00"`)

	_, err = New("bye00", Entity{ID: "bye00", Kind: Picker})
	assert.Error(t, err, "a picker cannot stand in for the bye team")

	_, err = Load(context.Background(), &fakeSource{entities: map[Kind][]Entity{
		Team: {{ID: "bye week"}},
	}}, "bye wek")
	assert.Error(t, err, "mistyped bye id")
}

func TestLoad(t *testing.T) {
	src := &fakeSource{entities: map[Kind][]Entity{
		Team:   {{ID: "bye00"}, {ID: "duke01", Aliases: []string{"Duke"}}},
		Picker: {{ID: "p1", Aliases: []string{"Phil"}}},
	}}

	r, err := Load(context.Background(), src, "bye00")
	require.NoError(t, err)
	assert.Equal(t, []string{"duke01"}, r.Lookup(Team, "Duke"))
	assert.Equal(t, []string{"p1"}, r.Lookup(Picker, "Phil"))
}

func TestLoad_SourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}

	_, err := Load(context.Background(), src, "bye00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
