package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/pkg/auth"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRouteList(t *testing.T) {
	out, err := run(t, "route:list")
	require.NoError(t, err)
	assert.Contains(t, out, "METHOD")
	assert.Contains(t, out, "/api/orders/confirm")
	assert.Contains(t, out, "wishlist.remove")
}

func TestTokenIssue(t *testing.T) {
	uid := primitive.NewObjectID()
	out, err := run(t, "token:issue", "--user", uid.Hex(), "--role", "vendor")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, uid, claims.ObjectID())
	assert.Equal(t, "vendor", claims.Role)
}

func TestTokenIssue_RejectsBadInput(t *testing.T) {
	_, err := run(t, "token:issue", "--user", "nope")
	assert.ErrorContains(t, err, "invalid --user")

	_, err = run(t, "token:issue", "--user", primitive.NewObjectID().Hex(), "--role", "root")
	assert.ErrorContains(t, err, "invalid --role")
}
