package jpeg

// support for JPEG APP1 (EXIF/TIFF), kept as an indexed blob per the
// design notes: this package never builds a deep IFD object graph, only
// a tag -> (type, count, value-or-offset) index over the payload bytes.

import (
    "encoding/binary"
    "fmt"
)

// EXIF tag value types, per the TIFF 6.0 field type vocabulary.
const (
    TypeByte      = 1
    TypeASCII     = 2
    TypeShort     = 3
    TypeLong      = 4
    TypeRational  = 5
    TypeSByte     = 6
    TypeUndefined = 7
    TypeSShort    = 8
    TypeSLong     = 9
    TypeSRational = 10
    TypeFloat     = 11
    TypeDouble    = 12
)

var typeSize = map[int]int{
    TypeByte: 1, TypeASCII: 1, TypeShort: 2, TypeLong: 4, TypeRational: 8,
    TypeSByte: 1, TypeUndefined: 1, TypeSShort: 2, TypeSLong: 4, TypeSRational: 8,
    TypeFloat: 4, TypeDouble: 8,
}

// Rational is an unsigned or signed TIFF rational: numerator/denominator.
type Rational struct {
    Num, Den int32
}

// IFDEntry is one directory entry: its tag, field type, component count,
// and either the inline value bytes (if they fit in 4 bytes) or the
// absolute offset into the TIFF blob where the value lives.
type IFDEntry struct {
    Tag       uint16
    Type      int
    Count     uint32
    ValueOrOffset [4]byte
}

// Exif is the indexed view over an APP1 EXIF payload: the byte order the
// TIFF header declared, and a tag -> entry map per IFD, keyed by the
// IFD's own byte offset within the TIFF blob (the offset the header or
// pointer tag gave, e.g. 8 for an IFD0 placed right after the header).
type Exif struct {
    LittleEndian bool
    blob         []byte // the TIFF payload, starting at the "II"/"MM" header
    IFDs         map[uint32]map[uint16]IFDEntry
}

const exifSignature = "Exif\x00\x00"

// parseAPP1Exif decodes an APP1 payload as EXIF, returning (nil, nil) if
// it does not carry the Exif signature, so the caller can fall back to
// AppData.
func parseAPP1Exif(payload []byte) (*Exif, error) {
    if len(payload) < len(exifSignature)+8 {
        return nil, nil
    }
    if string(payload[:len(exifSignature)]) != exifSignature {
        return nil, nil
    }
    blob := payload[len(exifSignature):]
    var order binary.ByteOrder
    var littleEndian bool
    switch string(blob[:2]) {
    case "II":
        order, littleEndian = binary.LittleEndian, true
    case "MM":
        order, littleEndian = binary.BigEndian, false
    default:
        return nil, fmt.Errorf("%w: unrecognized TIFF byte-order mark %q", ErrBadSegmentLength, blob[:2])
    }
    if order.Uint16(blob[2:4]) != 42 {
        return nil, fmt.Errorf("%w: TIFF header missing magic 42", ErrBadSegmentLength)
    }
    ifd0Offset := order.Uint32(blob[4:8])

    e := &Exif{LittleEndian: littleEndian, blob: blob, IFDs: map[uint32]map[uint16]IFDEntry{}}
    next := ifd0Offset
    for next != 0 {
        entries, nextIFD, err := e.readIFD(order, next)
        if err != nil {
            return nil, err
        }
        e.IFDs[next] = entries
        next = nextIFD
    }

    // The root IFD may itself point at sub-IFDs for EXIF-specific and
    // GPS tags; index those too, when present and well-formed, per the
    // spec's "also index those IFDs" rule.
    if root, ok := e.IFDs[ifd0Offset]; ok {
        for _, tag := range [...]uint16{tagExifIFDPointer, tagGPSIFDPointer} {
            ent, ok := root[tag]
            if !ok || ent.Type != TypeLong || ent.Count != 1 {
                continue
            }
            off := order.Uint32(ent.ValueOrOffset[:4])
            if _, already := e.IFDs[off]; already {
                continue
            }
            entries, _, err := e.readIFD(order, off)
            if err != nil {
                return nil, err
            }
            e.IFDs[off] = entries
        }
    }
    return e, nil
}

// Sub-IFD pointer tags in the root IFD, per the EXIF 2.3 tag registry.
const (
    tagExifIFDPointer = 34665
    tagGPSIFDPointer  = 34853
)

func (e *Exif) readIFD(order binary.ByteOrder, offset uint32) (map[uint16]IFDEntry, uint32, error) {
    if int(offset)+2 > len(e.blob) {
        return nil, 0, fmt.Errorf("%w: IFD offset %d beyond payload", ErrTruncatedSegment, offset)
    }
    count := order.Uint16(e.blob[offset : offset+2])
    entries := make(map[uint16]IFDEntry, count)
    pos := int(offset) + 2
    for i := 0; i < int(count); i++ {
        if pos+12 > len(e.blob) {
            return nil, 0, fmt.Errorf("%w: IFD entry %d beyond payload", ErrTruncatedSegment, i)
        }
        ent := IFDEntry{
            Tag:   order.Uint16(e.blob[pos : pos+2]),
            Type:  int(order.Uint16(e.blob[pos+2 : pos+4])),
            Count: order.Uint32(e.blob[pos+4 : pos+8]),
        }
        copy(ent.ValueOrOffset[:], e.blob[pos+8:pos+12])
        entries[ent.Tag] = ent
        pos += 12
    }
    var next uint32
    if pos+4 <= len(e.blob) {
        next = order.Uint32(e.blob[pos : pos+4])
    }
    return entries, next, nil
}

// Value extracts the raw bytes backing an entry's value, following the
// offset indirection for values that don't fit in 4 bytes.
func (e *Exif) Value(ent IFDEntry) ([]byte, error) {
    size := typeSize[ent.Type]
    if size == 0 {
        return nil, fmt.Errorf("%w: unknown EXIF field type %d", ErrBadSegmentLength, ent.Type)
    }
    total := size * int(ent.Count)
    if total <= 4 {
        return ent.ValueOrOffset[:total], nil
    }
    var order binary.ByteOrder = binary.BigEndian
    if e.LittleEndian {
        order = binary.LittleEndian
    }
    off := order.Uint32(ent.ValueOrOffset[:4])
    if int(off)+total > len(e.blob) {
        return nil, fmt.Errorf("%w: EXIF value offset %d+%d beyond payload", ErrTruncatedSegment, off, total)
    }
    return e.blob[off : int(off)+total], nil
}

// Rational decodes an entry of type TypeRational/TypeSRational at the
// given component index.
func (e *Exif) Rational(ent IFDEntry, index int) (Rational, error) {
    data, err := e.Value(ent)
    if err != nil {
        return Rational{}, err
    }
    if (index+1)*8 > len(data) {
        return Rational{}, fmt.Errorf("%w: rational index %d out of range", ErrBadSegmentLength, index)
    }
    var order binary.ByteOrder = binary.BigEndian
    if e.LittleEndian {
        order = binary.LittleEndian
    }
    base := index * 8
    return Rational{
        Num: int32(order.Uint32(data[base : base+4])),
        Den: int32(order.Uint32(data[base+4 : base+8])),
    }, nil
}
