package decoder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenRejectsUnknownExtension(t *testing.T) {
	_, err := Open("song.ogg")
	require.ErrorIs(t, err, ErrUnsupportedCodec)
}

func TestOpenRejectsMissingFile(t *testing.T) {
	_, err := Open("does-not-exist.wav")
	require.Error(t, err)
}
