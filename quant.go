package jpeg

import "fmt"

// zigzagOrder maps a wire-order index (as stored in a DQT segment) to its
// natural row-major position within an 8x8 block, per ITU-T T.81 Annex A.
var zigzagOrder = [64]int{
    0, 1, 8, 16, 9, 2, 3, 10,
    17, 24, 32, 25, 18, 11, 4, 5,
    12, 19, 26, 33, 40, 48, 41, 34,
    27, 20, 13, 6, 7, 14, 21, 28,
    35, 42, 49, 56, 57, 50, 43, 36,
    29, 22, 15, 23, 30, 37, 44, 51,
    58, 59, 52, 45, 38, 31, 39, 46,
    53, 60, 61, 54, 47, 55, 62, 63,
}

// QuantTable holds one 64-entry quantization table in natural (row-major)
// order, already de-zigzagged.
type QuantTable struct {
    Precision int // 8 or 16 bits per entry
    Values    [64]uint16
}

// quantTables is the four-slot store described in the data model: DQT
// may define some or all of slots 0-3, and a frame component references
// one by index. Redefinition replaces the slot outright.
type quantTables struct {
    slots [4]*QuantTable
}

func (q *quantTables) get(slot int) (*QuantTable, error) {
    if slot < 0 || slot > 3 {
        return nil, fmt.Errorf("%w: slot %d out of range", ErrUnknownQuantSlot, slot)
    }
    t := q.slots[slot]
    if t == nil {
        return nil, fmt.Errorf("%w: slot %d never defined", ErrUnknownQuantSlot, slot)
    }
    return t, nil
}

func (q *quantTables) set(slot int, t *QuantTable) { q.slots[slot] = t }

// parseDQT splits a DQT segment payload into its subsegments (Pq/Tq byte
// followed by 64 entries of 1 or 2 bytes each) and returns the tables it
// defines keyed by slot; a slot defined twice in one segment keeps the
// later table.
func parseDQT(payload []byte) (map[int]*QuantTable, error) {
    out := make(map[int]*QuantTable)
    i := 0
    for i < len(payload) {
        pqTq := payload[i]
        i++
        precision := 8
        if pqTq>>4 == 1 {
            precision = 16
        } else if pqTq>>4 != 0 {
            return nil, fmt.Errorf("%w: DQT precision nibble %d invalid", ErrInvalidQuantField, pqTq>>4)
        }
        slot := int(pqTq & 0x0F)
        if slot > 3 {
            return nil, fmt.Errorf("%w: DQT table id %d out of range", ErrInvalidQuantField, slot)
        }
        entryBytes := 1
        if precision == 16 {
            entryBytes = 2
        }
        need := 64 * entryBytes
        if i+need > len(payload) {
            return nil, fmt.Errorf("%w: DQT subsegment truncated", ErrTruncatedSegment)
        }
        var t QuantTable
        t.Precision = precision
        for z := 0; z < 64; z++ {
            var v uint16
            if precision == 8 {
                v = uint16(payload[i])
                i++
            } else {
                v = uint16(payload[i])<<8 | uint16(payload[i+1])
                i += 2
            }
            t.Values[zigzagOrder[z]] = v
        }
        out[slot] = &t
    }
    return out, nil
}
