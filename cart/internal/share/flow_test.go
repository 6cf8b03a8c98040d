package share

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/internal/domain"
)

type recordingReplacer struct {
	got []domain.Line
	err error
}

func (r *recordingReplacer) ReplaceAll(_ context.Context, lines []domain.Line) error {
	if r.err != nil {
		return r.err
	}
	r.got = lines
	return nil
}

func TestFlow(t *testing.T) {
	c := context.Background()

	t.Run("receive then confirm applies and returns to idle", func(t *testing.T) {
		f := NewFlow()
		state, err := f.Receive(c, "a_2,b_1")
		require.NoError(t, err)
		assert.Equal(t, PendingConfirmation, state)

		lines, token, ok := f.Pending()
		require.True(t, ok)
		assert.Equal(t, "a_2,b_1", token)
		assert.Len(t, lines, 2)

		r := &recordingReplacer{}
		applied, err := f.Confirm(c, r)
		require.NoError(t, err)
		assert.Equal(t, []domain.Line{{ProductID: "a", Quantity: 2}, {ProductID: "b", Quantity: 1}}, r.got)
		assert.Equal(t, r.got, applied)
		assert.Equal(t, Idle, f.State())

		_, _, ok = f.Pending()
		assert.False(t, ok)
	})

	t.Run("cancel discards without applying", func(t *testing.T) {
		f := NewFlow()
		_, err := f.Receive(c, "a_1")
		require.NoError(t, err)
		require.NoError(t, f.Cancel(c))
		assert.Equal(t, Idle, f.State())

		_, err = f.Confirm(c, &recordingReplacer{})
		assert.ErrorIs(t, err, ErrNothingPending)
	})

	t.Run("malformed token is rejected", func(t *testing.T) {
		f := NewFlow()
		state, err := f.Receive(c, "a_1,broken")
		var decodeErr *DecodeError
		assert.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, Rejected, state)
		assert.Equal(t, Idle, f.State())
	})

	t.Run("malformed token keeps an earlier pending one", func(t *testing.T) {
		f := NewFlow()
		_, err := f.Receive(c, "a_1")
		require.NoError(t, err)
		_, err = f.Receive(c, "oops")
		require.Error(t, err)

		_, token, ok := f.Pending()
		require.True(t, ok)
		assert.Equal(t, "a_1", token)
	})

	t.Run("new token supersedes pending", func(t *testing.T) {
		f := NewFlow()
		_, err := f.Receive(c, "a_1")
		require.NoError(t, err)
		_, err = f.Receive(c, "b_5")
		require.NoError(t, err)

		r := &recordingReplacer{}
		_, err = f.Confirm(c, r)
		require.NoError(t, err)
		assert.Equal(t, []domain.Line{{ProductID: "b", Quantity: 5}}, r.got)
	})

	t.Run("empty token is ignored", func(t *testing.T) {
		f := NewFlow()
		state, err := f.Receive(c, "")
		require.NoError(t, err)
		assert.Equal(t, Idle, state)
	})

	t.Run("failed replacement stays pending", func(t *testing.T) {
		f := NewFlow()
		_, err := f.Receive(c, "a_1")
		require.NoError(t, err)

		_, err = f.Confirm(c, &recordingReplacer{err: errors.New("closed")})
		require.Error(t, err)
		assert.Equal(t, PendingConfirmation, f.State())
	})

	t.Run("cancel with nothing pending", func(t *testing.T) {
		assert.ErrorIs(t, NewFlow().Cancel(c), ErrNothingPending)
	})
}
