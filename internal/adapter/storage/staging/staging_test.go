package staging

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStaging_StageOpenRemove(t *testing.T) {
	s, err := NewDiskStaging(t.TempDir(), "http://localhost:8080/", 1024)
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := s.Stage(ctx, "../../cover.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "cover.jpg", ref.FileName)
	assert.Equal(t, int64(10), ref.Size)
	assert.Equal(t, "http://localhost:8080/media/staging/"+ref.ID, ref.PreviewURL)

	rc, meta, err := s.Open(ctx, ref.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, ref, meta)

	require.NoError(t, s.Remove(ctx, ref.ID))
	_, _, err = s.Open(ctx, ref.ID)
	assert.ErrorIs(t, err, domain.ErrMediaNotFound)
	assert.NoError(t, s.Remove(ctx, ref.ID))
}

func TestDiskStaging_RejectsOversizedFiles(t *testing.T) {
	s, err := NewDiskStaging(t.TempDir(), "http://x", 4)
	require.NoError(t, err)

	_, err = s.Stage(context.Background(), "big.png", "image/png", bytes.NewReader([]byte("12345")))
	assert.ErrorIs(t, err, domain.ErrMediaTooLarge)

	ref, err := s.Stage(context.Background(), "ok.png", "image/png", bytes.NewReader([]byte("1234")))
	require.NoError(t, err)
	assert.Equal(t, int64(4), ref.Size)
}

func TestDiskStaging_UnknownOrUnsafeIDs(t *testing.T) {
	s, err := NewDiskStaging(t.TempDir(), "http://x", 0)
	require.NoError(t, err)

	for _, id := range []string{"", "../etc/passwd", "not-a-uuid", "7d444840-9dc0-11d1-b245-5ffdce74fad2"} {
		_, _, err := s.Open(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrMediaNotFound, id)
	}
}

func TestDiskStaging_CancelledContext(t *testing.T) {
	s, err := NewDiskStaging(t.TempDir(), "http://x", 0)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Stage(ctx, "a.jpg", "image/jpeg", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
