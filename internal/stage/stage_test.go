package stage

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, s := range All() {
		t.Run(s.String(), func(t *testing.T) {
			got, err := Parse(s.String())
			require.NoError(t, err)
			assert.Equal(t, s, got)
		})
	}

	got, err := Parse("  PARSE_Batches ")
	require.NoError(t, err)
	assert.Equal(t, ParseBatches, got)

	_, err = Parse("index")
	require.EqualError(t, err, "invalid stage: index")
}

func TestNames(t *testing.T) {
	var got []string
	for _, s := range All() {
		got = append(got, s.String())
	}
	want := []string{"compile", "build", "parse", "parse_batches", "invert"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stage names mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "stage(42)", Stage(42).String())
}

func TestUnmarshalText(t *testing.T) {
	var s Stage
	require.NoError(t, s.UnmarshalText([]byte("invert")))
	assert.Equal(t, Invert, s)
	assert.Error(t, s.UnmarshalText([]byte("nope")))

	text, err := ParseCollection.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "parse", string(text))
}

func TestController(t *testing.T) {
	c := &Controller{}
	assert.False(t, c.IsSuppressed(Invert))

	c.Suppress(Invert)
	c.Suppress(Invert)
	c.Suppress(ParseCollection)
	assert.True(t, c.IsSuppressed(Invert))
	assert.True(t, c.IsSuppressed(ParseCollection))
	assert.False(t, c.IsSuppressed(BuildIndex))
	assert.Equal(t, []Stage{ParseCollection, Invert}, c.Suppressed())
}

func TestController_NilSuppressesNothing(t *testing.T) {
	var c *Controller
	for _, s := range All() {
		assert.False(t, c.IsSuppressed(s))
	}
	assert.Empty(t, c.Suppressed())
	assert.True(t, c.Equal(NewController()))
}

func TestController_Equal(t *testing.T) {
	a := NewController(Invert, ParseCollection)
	b := NewController(ParseCollection, Invert, Invert)
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))

	b.Suppress(Compile)
	assert.False(t, a.Equal(b))
}
