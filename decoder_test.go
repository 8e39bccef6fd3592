package jpeg

import (
    "bytes"
    "testing"

    "github.com/stretchr/testify/require"
)

func TestDecoder_DecodeSummary(t *testing.T) {
    data := minimalBaselineStream()
    dec := NewDecoder(bytes.NewReader(data))
    require.NotEmpty(t, dec.SessionID)

    summary, err := dec.Decode()
    require.NoError(t, err)
    require.NotNil(t, summary.Frame)
    require.Equal(t, 8, summary.Frame.Precision)
    require.Len(t, summary.Scans, 1)
}

func TestDecoder_SessionIDsAreDistinct(t *testing.T) {
    d1 := NewDecoderFromBytes(minimalBaselineStream())
    d2 := NewDecoderFromBytes(minimalBaselineStream())
    require.NotEqual(t, d1.SessionID, d2.SessionID)
}

// E1: a bare SOI/EOI stream with no frame header is a premature EOI.
func TestDecoder_E1_MinimalStreamIsPrematureEOI(t *testing.T) {
    data := []byte{0xFF, byte(markerSOI), 0xFF, byte(markerEOI)}
    dec := NewDecoderFromBytes(data)

    ev, err := dec.Next()
    require.NoError(t, err)
    require.IsType(t, EventSOI{}, ev)

    _, err = dec.Next()
    require.ErrorIs(t, err, ErrPrematureEOI)
}

// E2: a JFIF APP0 segment with no frame still ends in premature EOI, but
// the JFIF metadata must be reported first with the exact decoded fields.
func TestDecoder_E2_JFIFOnlyThenPrematureEOI(t *testing.T) {
    data := []byte{
        0xFF, byte(markerSOI),
        0xFF, byte(markerAPP0), 0x00, 0x10,
        0x4A, 0x46, 0x49, 0x46, 0x00, // "JFIF\0"
        0x01, 0x02, // version 1.2
        0x00,       // units: arbitrary
        0x00, 0x48, // x density 72
        0x00, 0x48, // y density 72
        0x00, 0x00, // no thumbnail
        0xFF, byte(markerEOI),
    }
    dec := NewDecoderFromBytes(data)

    _, err := dec.Next() // SOI
    require.NoError(t, err)

    ev, err := dec.Next() // JFIF
    require.NoError(t, err)
    jfif, ok := ev.(EventJFIF)
    require.True(t, ok)
    require.Equal(t, 1, jfif.JFIF.VersionMajor)
    require.Equal(t, 2, jfif.JFIF.VersionMinor)
    require.Equal(t, UnitsArbitrary, jfif.JFIF.Units)
    require.Equal(t, 72, jfif.JFIF.HDensity)
    require.Equal(t, 72, jfif.JFIF.VDensity)

    _, err = dec.Next()
    require.ErrorIs(t, err, ErrPrematureEOI)
}
