package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/cart/internal/domain"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := ShareCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return strings.TrimSpace(out.String()), err
}

func TestShareCommand(t *testing.T) {
	t.Run("encode", func(t *testing.T) {
		out, err := run(t, "encode", "p1=2", "p2=1")
		require.NoError(t, err)
		assert.Equal(t, "p1_2,p2_1", out)
	})

	t.Run("encode refuses delimiters", func(t *testing.T) {
		_, err := run(t, "encode", "a_b=1")
		assert.Error(t, err)
	})

	t.Run("encode refuses malformed argument", func(t *testing.T) {
		_, err := run(t, "encode", "p1")
		assert.Error(t, err)
		_, err = run(t, "encode", "p1=x")
		assert.Error(t, err)
	})

	t.Run("decode", func(t *testing.T) {
		out, err := run(t, "decode", "p1_2,p2_1")
		require.NoError(t, err)
		lines := []domain.Line{}
		require.NoError(t, json.Unmarshal([]byte(out), &lines))
		assert.Equal(t, []domain.Line{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 1}}, lines)
	})

	t.Run("decode rejects malformed token", func(t *testing.T) {
		_, err := run(t, "decode", "p1_0")
		assert.Error(t, err)
	})

	t.Run("link", func(t *testing.T) {
		out, err := run(t, "link", "--base", "https://shop.example.com/", "p1=2")
		require.NoError(t, err)
		assert.Equal(t, "https://shop.example.com/cart?sharedItems=p1_2", out)
	})
}
