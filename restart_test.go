package jpeg

import (
    "testing"

    "github.com/stretchr/testify/require"
)

func TestParseDRI(t *testing.T) {
    interval, err := parseDRI([]byte{0x01, 0x00})
    require.NoError(t, err)
    require.Equal(t, 256, interval)
}

func TestParseDRI_WrongLength(t *testing.T) {
    _, err := parseDRI([]byte{0x01})
    require.ErrorIs(t, err, ErrBadSegmentLength)
}

func TestParseDRI_ZeroDisablesRestarts(t *testing.T) {
    interval, err := parseDRI([]byte{0x00, 0x00})
    require.NoError(t, err)
    require.Equal(t, 0, interval)
}

func TestParseDNL(t *testing.T) {
    lines, err := parseDNL([]byte{0x02, 0x00})
    require.NoError(t, err)
    require.Equal(t, 512, lines)
}

func TestParseDNL_WrongLength(t *testing.T) {
    _, err := parseDNL([]byte{0x00, 0x01, 0x02})
    require.ErrorIs(t, err, ErrBadSegmentLength)
}
