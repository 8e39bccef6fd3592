package jpeg

import (
    "testing"

    "github.com/stretchr/testify/require"
)

func TestLexer_ReadMarker_SkipsFillBytes(t *testing.T) {
    l := newLexer(NewSliceSource([]byte{0xFF, 0xFF, 0xFF, 0xD8}), "test")
    m, err := l.ReadMarker()
    require.NoError(t, err)
    require.Equal(t, markerSOI, m)
}

func TestLexer_ReadSegment(t *testing.T) {
    // length field 0x0006 means 4 bytes of payload follow.
    l := newLexer(NewSliceSource([]byte{0x00, 0x06, 1, 2, 3, 4}), "test")
    payload, err := l.ReadSegment(markerDQT)
    require.NoError(t, err)
    require.Equal(t, []byte{1, 2, 3, 4}, payload)
}

func TestLexer_ReadSegment_BadLength(t *testing.T) {
    l := newLexer(NewSliceSource([]byte{0x00, 0x01}), "test")
    _, err := l.ReadSegment(markerDQT)
    require.ErrorIs(t, err, ErrBadSegmentLength)
}

func TestLexer_ReadECS_Unstuffing(t *testing.T) {
    // 0x12, stuffed 0xFF (as FF 00), 0x34, then marker EOI (FF D9).
    l := newLexer(NewSliceSource([]byte{0x12, 0xFF, 0x00, 0x34, 0xFF, 0xD9}), "test")
    data, next, err := l.ReadECS()
    require.NoError(t, err)
    require.Equal(t, []byte{0x12, 0xFF, 0x34}, data)
    require.Equal(t, markerEOI, next)
}

func TestLexer_ReadECS_SkipsFillBytesBeforeMarker(t *testing.T) {
    l := newLexer(NewSliceSource([]byte{0x01, 0xFF, 0xFF, 0xFF, 0xD9}), "test")
    data, next, err := l.ReadECS()
    require.NoError(t, err)
    require.Equal(t, []byte{0x01}, data)
    require.Equal(t, markerEOI, next)
}

func TestLexer_ReadECS_TruncatedRejected(t *testing.T) {
    l := newLexer(NewSliceSource([]byte{0x01, 0x02}), "test")
    _, _, err := l.ReadECS()
    require.ErrorIs(t, err, ErrTruncatedECS)
}
