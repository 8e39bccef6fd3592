package jpeg

// support for JPEG app0 (JFIF)

import (
    "bytes"
    "fmt"
)

// density units carried in a JFIF APP0 segment.
const (
    UnitsArbitrary = 0 // undefined unit
    UnitsDPI       = 1 // dots per inch
    UnitsDPCM      = 2 // dots per centimeter
)

func getUnitsString(units int) (string, string) {
    switch units {
    case UnitsArbitrary:
        return "dots per arbitrary unit", "dp?"
    case UnitsDPI:
        return "dots per inch", "dpi"
    case UnitsDPCM:
        return "dots per centimeter", "dpcm"
    }
    return "unknown units", ""
}

var jfifSignature = []byte("JFIF\x00")
var jfxxSignature = []byte("JFXX\x00")

const (
    thumbnailBaseline = 0x10
    thumbnailPalette  = 0x11
    thumbnailRGB      = 0x12
)

// JFIF is the decoded contents of a JFIF (APP0) segment.
type JFIF struct {
    VersionMajor, VersionMinor int
    Units                      int
    HDensity, VDensity         int
    ThumbWidth, ThumbHeight    int
    Thumbnail                  []byte // raw RGB triples, ThumbWidth*ThumbHeight*3 bytes
}

// JFXXExtension is a JFIF extension APP0 segment, legal only immediately
// after the JFIF APP0 segment itself.
type JFXXExtension struct {
    ThumbnailFormat int // one of thumbnailBaseline/Palette/RGB
    Payload         []byte
}

// parseAPP0 decodes an APP0 payload as JFIF, returning (nil, nil, nil) if
// it carries neither signature, so the caller can fall back to AppData.
func parseAPP0(payload []byte) (*JFIF, *JFXXExtension, error) {
    if len(payload) < 5 {
        return nil, nil, nil
    }
    switch {
    case bytes.Equal(payload[:5], jfifSignature):
        if len(payload) < 14 {
            return nil, nil, fmt.Errorf("%w: JFIF header too short (%d bytes)", ErrBadSegmentLength, len(payload))
        }
        f := &JFIF{
            VersionMajor: int(payload[5]),
            VersionMinor: int(payload[6]),
            Units:        int(payload[7]),
            HDensity:     int(payload[8])<<8 | int(payload[9]),
            VDensity:     int(payload[10])<<8 | int(payload[11]),
            ThumbWidth:   int(payload[12]),
            ThumbHeight:  int(payload[13]),
        }
        if f.VersionMajor != 1 || f.VersionMinor > 2 {
            return nil, nil, fmt.Errorf("%w: unsupported JFIF version %d.%02d", ErrBadSegmentLength, f.VersionMajor, f.VersionMinor)
        }
        if f.Units != UnitsArbitrary && f.Units != UnitsDPI && f.Units != UnitsDPCM {
            return nil, nil, fmt.Errorf("%w: invalid JFIF density unit %d", ErrBadSegmentLength, f.Units)
        }
        want := 14 + f.ThumbWidth*f.ThumbHeight*3
        if len(payload) != want {
            return nil, nil, fmt.Errorf("%w: JFIF thumbnail size mismatch (payload %d bytes, want %d)",
                ErrBadSegmentLength, len(payload), want)
        }
        f.Thumbnail = append([]byte(nil), payload[14:]...)
        return f, nil, nil

    case bytes.Equal(payload[:5], jfxxSignature):
        if len(payload) < 6 {
            return nil, nil, fmt.Errorf("%w: JFXX extension too short", ErrBadSegmentLength)
        }
        code := int(payload[5])
        switch code {
        case thumbnailBaseline, thumbnailPalette, thumbnailRGB:
        default:
            return nil, nil, fmt.Errorf("%w: unknown JFXX thumbnail format 0x%02X", ErrBadSegmentLength, code)
        }
        return nil, &JFXXExtension{ThumbnailFormat: code, Payload: append([]byte(nil), payload[6:]...)}, nil
    }
    return nil, nil, nil
}
