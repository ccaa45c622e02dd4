package oggvorbis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/mediaio"
)

func TestBackend(t *testing.T) {
	ctx := context.Background()
	b := Backend{}

	assert.True(t, b.CanDecode("x.ogg"))
	assert.True(t, b.CanDecode("X.OGA"))
	assert.False(t, b.CanDecode("x.wav"))
	assert.False(t, b.CanEncode("x.ogg"))
	assert.ErrorIs(t, b.Encode(ctx, "x.ogg", audio.NewPCM(8000, 1, 1)), mediaio.ErrUnsupported)

	path := filepath.Join(t.TempDir(), "broken.ogg")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an ogg stream"), 0o644))
	_, err := b.Decode(ctx, path, mediaio.DecodeOptions{})
	assert.Error(t, err)
	_, err = b.Probe(ctx, path)
	assert.Error(t, err)

	_, err = b.Decode(ctx, filepath.Join(t.TempDir(), "missing.ogg"), mediaio.DecodeOptions{})
	assert.Error(t, err)
}
