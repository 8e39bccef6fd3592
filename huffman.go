package jpeg

import "fmt"

// huffEntry is one slot of either the primary or a secondary lookup
// table. Length 0 in a primary-table entry means "the code is longer
// than 8 bits, consult the secondary table named by Next"; Length 0 in a
// secondary-table entry marks a window no codeword covers (the reserved
// all-ones codeword), which Lookup reports as not ok.
type huffEntry struct {
    Length uint8 // total codeword length in bits
    Value  uint8
    Next   uint8 // index into secondaries, valid only when Length == 0
}

// HuffmanTable is the two-level lookup structure described for the
// builder: a 256-entry primary table indexed by the next 8 bits of the
// bitstream, plus s secondary 256-entry tables for codes longer than 8
// bits, one per distinct 8-bit prefix among those codes, for a total
// storage of 256 + 256*s entries. Every slot of a secondary table,
// including slot 0, is indexed by the second byte of the window.
type HuffmanTable struct {
    Class       int // 0 = DC/lossless, 1 = AC
    Slot        int
    primary     [256]huffEntry
    secondaries [][256]huffEntry
}

// Lookup decodes the codeword at the start of the given 16-bit window
// (the next two bytes of the bitstream, MSB first; bitio.Reader.Peek16
// pads past the end of the stream with 1-bits) and returns the decoded
// value and the codeword's length in bits, which the caller then
// consumes. Lookup itself advances no cursor.
func (t *HuffmanTable) Lookup(window uint16) (value uint8, consumed int, ok bool) {
    hi := uint8(window >> 8)
    e := t.primary[hi]
    if e.Length != 0 {
        return e.Value, int(e.Length), true
    }
    if int(e.Next) >= len(t.secondaries) {
        return 0, 0, false
    }
    lo := uint8(window & 0xFF)
    se := t.secondaries[e.Next][lo]
    if se.Length == 0 {
        return 0, 0, false
    }
    return se.Value, int(se.Length), true
}

// buildHuffmanTable runs the canonical-Huffman code assignment (ITU-T
// T.81 Annex C.2: shortest codes first, incrementing within a length and
// shifting left between lengths) over the BITS/HUFFVAL arrays from a DHT
// subsegment, then packs the resulting (length, code, value) triples
// into the two-level table above.
func buildHuffmanTable(class, slot int, counts [16]byte, values []byte) (*HuffmanTable, error) {
    total := 0
    for _, c := range counts {
        total += int(c)
    }
    if total != len(values) {
        return nil, fmt.Errorf("%w: BITS sums to %d but HUFFVAL has %d entries", ErrBadHuffmanTable, total, len(values))
    }
    if total == 0 {
        return nil, fmt.Errorf("%w: table defines no codes", ErrBadHuffmanTable)
    }

    // Walk the same BITS counts through the Nl = 2*Nl-1 - Ll recurrence
    // (ITU-T T.81 Annex C.2): Nl is the number of internal nodes still
    // available at level l after leaves are carved off for the Ll codes of
    // that length. A negative Nl means more codes were requested at some
    // length than the tree has room for; a final N16 other than 1 means
    // the table doesn't consume the code space down to the single
    // all-ones codeword the standard reserves, and is not a valid
    // canonical Huffman table either way.
    nodes := 1
    for length := 1; length <= 16; length++ {
        nodes = 2*nodes - int(counts[length-1])
        if nodes < 0 {
            return nil, fmt.Errorf("%w: length %d overflows the code space", ErrBadHuffmanTable, length)
        }
    }
    if nodes != 1 {
        return nil, fmt.Errorf("%w: %d internal nodes left over at length 16, want 1", ErrBadHuffmanTable, nodes)
    }

    type assigned struct {
        length int
        code   uint16
        value  byte
    }
    codes := make([]assigned, 0, total)

    code := uint16(0)
    k := 0
    for length := 1; length <= 16; length++ {
        n := int(counts[length-1])
        for i := 0; i < n; i++ {
            codes = append(codes, assigned{length: length, code: code, value: values[k]})
            code++
            k++
        }
        code <<= 1
    }

    t := &HuffmanTable{Class: class, Slot: slot}
    // secondaryForPrefix maps an 8-bit prefix already seen among long
    // codes to the secondary table allocated for it.
    secondaryForPrefix := make(map[uint8]int)

    for _, a := range codes {
        if a.length <= 8 {
            shift := 8 - a.length
            base := uint16(a.code) << uint(shift)
            span := 1 << uint(shift)
            for j := 0; j < span; j++ {
                t.primary[int(base)+j] = huffEntry{Length: uint8(a.length), Value: a.value}
            }
            continue
        }
        prefix := uint8(a.code >> uint(a.length-8))
        idx, ok := secondaryForPrefix[prefix]
        if !ok {
            idx = len(t.secondaries)
            t.secondaries = append(t.secondaries, [256]huffEntry{})
            secondaryForPrefix[prefix] = idx
            t.primary[prefix] = huffEntry{Length: 0, Next: uint8(idx)}
        }
        remBits := a.length - 8
        shift := 8 - remBits
        mask := uint16(a.code) & ((1 << uint(remBits)) - 1)
        base := mask << uint(shift)
        span := 1 << uint(shift)
        for j := 0; j < span; j++ {
            t.secondaries[idx][int(base)+j] = huffEntry{Length: uint8(a.length), Value: a.value}
        }
    }
    return t, nil
}

// huffmanTables is the (up to 4 DC + 4 AC) slot store a driver keeps
// alive across a frame, mirroring quantTables.
type huffmanTables struct {
    dc [4]*HuffmanTable
    ac [4]*HuffmanTable
}

func (h *huffmanTables) get(class, slot int) (*HuffmanTable, error) {
    if slot < 0 || slot > 3 {
        return nil, fmt.Errorf("%w: slot %d out of range", ErrUnknownHuffmanSlot, slot)
    }
    var t *HuffmanTable
    if class == 0 {
        t = h.dc[slot]
    } else {
        t = h.ac[slot]
    }
    if t == nil {
        return nil, fmt.Errorf("%w: class %d slot %d never defined", ErrUnknownHuffmanSlot, class, slot)
    }
    return t, nil
}

func (h *huffmanTables) set(t *HuffmanTable) {
    if t.Class == 0 {
        h.dc[t.Slot] = t
    } else {
        h.ac[t.Slot] = t
    }
}

// parseDHT splits a DHT segment payload into its subsegments (Tc/Th byte,
// 16 count bytes, then the HUFFVAL bytes) and builds one HuffmanTable
// per subsegment, in segment order.
func parseDHT(payload []byte) ([]*HuffmanTable, error) {
    var out []*HuffmanTable
    i := 0
    for i < len(payload) {
        if i+17 > len(payload) {
            return nil, fmt.Errorf("%w: DHT subsegment header truncated", ErrTruncatedSegment)
        }
        tcTh := payload[i]
        i++
        class := int(tcTh >> 4)
        slot := int(tcTh & 0x0F)
        if class > 1 || slot > 3 {
            return nil, fmt.Errorf("%w: DHT class/slot %d/%d invalid", ErrInvalidHuffmanField, class, slot)
        }
        var counts [16]byte
        copy(counts[:], payload[i:i+16])
        i += 16
        total := 0
        for _, c := range counts {
            total += int(c)
        }
        if i+total > len(payload) {
            return nil, fmt.Errorf("%w: DHT HUFFVAL truncated", ErrTruncatedSegment)
        }
        values := payload[i : i+total]
        i += total
        t, err := buildHuffmanTable(class, slot, counts, values)
        if err != nil {
            return nil, err
        }
        out = append(out, t)
    }
    return out, nil
}
