package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSinkRecordsWrites(t *testing.T) {
	t.Parallel()

	s := New()
	require.NoError(t, s.Write(context.Background(), "posts", [][]string{{"a"}, {"1"}}))
	require.NoError(t, s.Write(context.Background(), "profiles", [][]string{{"b"}}))
	require.NoError(t, s.Write(context.Background(), "posts", [][]string{{"a"}, {"2"}}))

	require.Equal(t, [][]string{{"a"}, {"2"}}, s.Table("posts"))
	require.Equal(t, []string{"posts", "profiles"}, s.Tables())
	require.Nil(t, s.Table("missing"))
}
