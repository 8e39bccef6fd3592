package jpeg

import (
    "testing"

    "github.com/stretchr/testify/require"
)

// onePerLengthFixture returns the minimal BITS/HUFFVAL pair satisfying the
// code-length invariant: exactly one code at every length from 1 to 16,
// which keeps the residual internal-node count at length 16 at exactly 1
// (the reserved all-ones codeword) throughout the recurrence.
func onePerLengthFixture() ([16]byte, []byte) {
    var counts [16]byte
    values := make([]byte, 16)
    for i := range counts {
        counts[i] = 1
        values[i] = byte(i)
    }
    return counts, values
}

// A length-1 code resolves in a single bit even in a table that also
// carries the longer codes a valid table needs to satisfy the length-16
// code-space invariant.
func TestBuildHuffmanTable_SingleSymbol(t *testing.T) {
    counts, values := onePerLengthFixture()
    values[0] = 0x05
    tbl, err := buildHuffmanTable(0, 0, counts, values)
    require.NoError(t, err)

    v, n, ok := tbl.Lookup(0x0000)
    require.True(t, ok)
    require.Equal(t, 1, n)
    require.Equal(t, uint8(0x05), v)
}

// Exercises the totality property: every one of the 256 primary entries
// must be reachable, either resolved directly for codes of 8 bits or
// less, or by chaining into a real secondary table for the longer codes.
func TestBuildHuffmanTable_Totality(t *testing.T) {
    counts, values := onePerLengthFixture()
    tbl, err := buildHuffmanTable(0, 0, counts, values)
    require.NoError(t, err)

    for i := 0; i < 256; i++ {
        e := tbl.primary[i]
        if e.Length == 0 {
            require.Less(t, int(e.Next), len(tbl.secondaries), "primary slot %d unresolved", i)
        }
    }
}

func TestBuildHuffmanTable_LongCodesUseSecondary(t *testing.T) {
    // In a one-code-per-length table, the length-9 code is the first to
    // exceed the primary table's 8-bit reach and must resolve through a
    // secondary table instead.
    counts, values := onePerLengthFixture()
    tbl, err := buildHuffmanTable(1, 2, counts, values)
    require.NoError(t, err)
    require.NotEmpty(t, tbl.secondaries)

    v, n, ok := tbl.Lookup(0xFF00)
    require.True(t, ok)
    require.Equal(t, 9, n)
    require.Equal(t, values[8], v)
}

// A lone length-1 code leaves 32767 internal nodes unaccounted for at
// length 16 instead of the single reserved all-ones codeword, and must be
// rejected even though it never overflows the code space at any length.
func TestBuildHuffmanTable_RejectsIncompleteLength16(t *testing.T) {
    var counts [16]byte
    counts[0] = 1
    _, err := buildHuffmanTable(0, 0, counts, []byte{0x05})
    require.ErrorIs(t, err, ErrBadHuffmanTable)
}

func TestBuildHuffmanTable_RejectsOverflow(t *testing.T) {
    var counts [16]byte
    counts[0] = 3 // three codes of length 1 is impossible (only 2 fit)
    _, err := buildHuffmanTable(0, 0, counts, []byte{0, 1, 2})
    require.ErrorIs(t, err, ErrBadHuffmanTable)
}

func TestBuildHuffmanTable_RejectsCountMismatch(t *testing.T) {
    var counts [16]byte
    counts[0] = 1
    _, err := buildHuffmanTable(0, 0, counts, []byte{0, 1})
    require.ErrorIs(t, err, ErrBadHuffmanTable)
}

func TestParseDHT_MultipleSubsegments(t *testing.T) {
    counts, values := onePerLengthFixture()
    values[0] = 0x07
    payload := []byte{0x00} // Tc=0 Th=0
    payload = append(payload, counts[:]...)
    payload = append(payload, values...)

    values2 := append([]byte(nil), values...)
    values2[0] = 0x09
    payload2 := []byte{0x10} // Tc=1 Th=0
    payload2 = append(payload2, counts[:]...)
    payload2 = append(payload2, values2...)

    tables, err := parseDHT(append(payload, payload2...))
    require.NoError(t, err)
    require.Len(t, tables, 2)
    require.Equal(t, 0, tables[0].Class)
    require.Equal(t, 1, tables[1].Class)
}
