package bitio

import (
    "testing"

    "github.com/stretchr/testify/require"
)

func TestReader_ReadBitsAcrossByteBoundary(t *testing.T) {
    r := New([]byte{0b10110010, 0b11110000})
    v, err := r.ReadBits(4)
    require.NoError(t, err)
    require.Equal(t, 0b1011, v)

    v, err = r.ReadBits(8)
    require.NoError(t, err)
    require.Equal(t, 0b00101111, v)
}

func TestReader_PeekDoesNotConsume(t *testing.T) {
    r := New([]byte{0xAB, 0xCD})
    w1 := r.Peek16()
    w2 := r.Peek16()
    require.Equal(t, w1, w2)
    require.Equal(t, uint16(0xABCD), w1)
}

func TestReader_PastEndSynthesizesOnes(t *testing.T) {
    r := New([]byte{0xFF})
    r.Consume(8)
    require.True(t, r.Exhausted())
    v, err := r.ReadBits(8)
    require.NoError(t, err)
    require.Equal(t, 0xFF, v)
}

func TestReader_BitsConsumedTracksPosition(t *testing.T) {
    r := New([]byte{0x00, 0x00})
    require.EqualValues(t, 0, r.BitsConsumed())
    r.Consume(5)
    require.EqualValues(t, 5, r.BitsConsumed())
}
