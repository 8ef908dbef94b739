package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqOf(parts []string, failure error, pulled *int) func(func(string, error) bool) {
	return func(yield func(string, error) bool) {
		for _, p := range parts {
			*pulled++
			if !yield(p, nil) {
				return
			}
		}
		if failure != nil {
			yield("", failure)
		}
	}
}

func TestNewStream_YieldsInOrder(t *testing.T) {
	pulled := 0
	stream := NewStream(seqOf([]string{"Par", "is"}, nil, &pulled))
	defer stream.Stop()

	text, err, ok := stream.Next()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "Par", text)

	text, _, ok = stream.Next()
	require.True(t, ok)
	assert.Equal(t, "is", text)

	_, _, ok = stream.Next()
	assert.False(t, ok)
}

func TestNewStream_IsLazy(t *testing.T) {
	pulled := 0
	stream := NewStream(seqOf([]string{"a", "b", "c"}, nil, &pulled))

	assert.Equal(t, 0, pulled)

	_, _, ok := stream.Next()
	require.True(t, ok)
	stream.Stop()

	assert.Equal(t, 1, pulled)
}

func TestNewStream_SurfacesFailure(t *testing.T) {
	pulled := 0
	failure := errors.New("generation failed")
	stream := NewStream(seqOf(nil, failure, &pulled))
	defer stream.Stop()

	_, err, ok := stream.Next()

	require.True(t, ok)
	assert.ErrorIs(t, err, failure)
}

func TestNewStream_StopIsIdempotent(t *testing.T) {
	pulled := 0
	stream := NewStream(seqOf([]string{"a"}, nil, &pulled))

	assert.NotPanics(t, func() {
		stream.Stop()
		stream.Stop()
	})
	_, _, ok := stream.Next()
	assert.False(t, ok)
}
