package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureTokenEstavelNaSessao(t *testing.T) {
	m := NewCSRFManager("segredo")
	sess := &Session{ID: "abc"}

	primeiro, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.NotEmpty(t, primeiro)

	segundo, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, primeiro, segundo)
}

func TestVerifyToken(t *testing.T) {
	m := NewCSRFManager("segredo")
	sess := &Session{ID: "abc"}

	token, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)

	require.NoError(t, m.VerifyToken(context.Background(), sess, token))
	require.ErrorIs(t, m.VerifyToken(context.Background(), sess, "forjado"), ErrCSRFTokenMismatch)
	require.ErrorIs(t, m.VerifyToken(context.Background(), sess, ""), ErrCSRFTokenMissing)
	require.ErrorIs(t, m.VerifyToken(context.Background(), nil, token), ErrCSRFTokenMissing)
}
