package classid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Deterministic(t *testing.T) {
	a := New("ServiceRequestEvent")
	b := New("ServiceRequestEvent")

	assert.Equal(t, a.Magic(), b.Magic(), "magic must be a pure function of the name")
	assert.True(t, a.Equal(b))
	assert.Equal(t, "ServiceRequestEvent", a.Name())
	assert.True(t, a.IsValid())
}

func TestNew_DistinctNames(t *testing.T) {
	a := New("RequestEvent")
	b := New("ResponseEvent")

	assert.NotEqual(t, a.Magic(), b.Magic())
	assert.False(t, a.Equal(b))
}

func TestNew_EmptyNameInvalid(t *testing.T) {
	id := New("")
	assert.False(t, id.IsValid())
	assert.Equal(t, InvalidMagic, id.Magic())
}

func TestClass_IsWalksChain(t *testing.T) {
	root := NewClass("Event", nil)
	mid := NewClass("StubEvent", root)
	leaf := NewClass("ClientConnectEvent", mid)

	assert.True(t, leaf.Is(leaf.ID()), "class matches itself")
	assert.True(t, leaf.Is(mid.ID()), "class matches direct parent")
	assert.True(t, leaf.Is(root.ID()), "class matches root ancestor")
	assert.False(t, root.Is(leaf.ID()), "ancestry is not symmetric")
	assert.True(t, leaf.IsName("Event"))
	assert.False(t, leaf.IsName("ResponseEvent"))
}

type fakeObject struct {
	class *Class
}

func (f *fakeObject) RuntimeClass() *Class { return f.class }

type otherObject struct {
	class *Class
}

func (o *otherObject) RuntimeClass() *Class { return o.class }

func TestIs_NilObject(t *testing.T) {
	assert.False(t, Is(nil, New("Event")))
}

func TestCast(t *testing.T) {
	root := NewClass("Event", nil)
	derived := NewClass("DerivedEvent", root)
	obj := &fakeObject{class: derived}

	t.Run("matching class and type", func(t *testing.T) {
		got, ok := Cast[*fakeObject](obj, derived.ID())
		require.True(t, ok)
		assert.Same(t, obj, got)
	})

	t.Run("ancestor class", func(t *testing.T) {
		got, ok := Cast[*fakeObject](obj, root.ID())
		require.True(t, ok)
		assert.Same(t, obj, got)
	})

	t.Run("unrelated class", func(t *testing.T) {
		unrelated := NewClass("UnrelatedEvent", nil)
		_, ok := Cast[*fakeObject](obj, unrelated.ID())
		assert.False(t, ok)
	})

	t.Run("class matches but go type differs", func(t *testing.T) {
		_, ok := Cast[*otherObject](obj, derived.ID())
		assert.False(t, ok)
	})
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	c := NewClass("RouterEvent", nil)

	require.NoError(t, reg.Register(c))

	byName, ok := reg.LookupName("RouterEvent")
	require.True(t, ok)
	assert.Same(t, c, byName)

	byMagic, ok := reg.LookupMagic(c.ID().Magic())
	require.True(t, ok)
	assert.Same(t, c, byMagic)

	_, ok = reg.LookupName("NoSuchEvent")
	assert.False(t, ok)
}

func TestRegistry_DoubleRegisterSameName(t *testing.T) {
	reg := NewRegistry()
	c := NewClass("RouterEvent", nil)

	require.NoError(t, reg.Register(c))
	assert.NoError(t, reg.Register(c), "same class twice is a no-op")
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register(nil))
	assert.Error(t, reg.Register(NewClass("", nil)))
}
