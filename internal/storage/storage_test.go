package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("/cursos/12/", "Portada.JPG")
	require.True(t, strings.HasPrefix(key, "cursos/12/"))
	require.True(t, strings.HasSuffix(key, ".jpg"))
	id := strings.TrimSuffix(strings.TrimPrefix(key, "cursos/12/"), ".jpg")
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	require.NotEqual(t, key, ObjectKey("cursos/12", "Portada.JPG"))
}

func TestDisabled(t *testing.T) {
	var s Storage = Disabled{}
	_, err := s.Put(context.Background(), "k", "image/png", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrDisabled)
}
