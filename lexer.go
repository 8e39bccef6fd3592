package jpeg

import (
    "fmt"
    "io"
)

// Lexer turns a ByteSource into markers, marker segments, and
// entropy-coded runs. It never interprets segment payloads; that is left
// to the segment parsers in frame.go, scan.go, quant.go and friends.
type Lexer struct {
    src       ByteSource
    sessionID string
}

func newLexer(src ByteSource, sessionID string) *Lexer {
    return &Lexer{src: src, sessionID: sessionID}
}

// truncatedMarker wraps an error from the source as a *jpeg.Error,
// naming a bare io.EOF as the spec's "truncated marker type" category
// rather than letting it pass through unwrapped: an unwrapped io.EOF is
// the idiom Driver.Next and Decoder.Decode use to recognize a clean end
// of stream, so a raw io.EOF here would make a stream truncated mid-marker
// look like a successful decode.
func (l *Lexer) truncatedMarker(err error) error {
    if err == io.EOF {
        err = ErrTruncatedMarkerType
    }
    return wrapErr(l.sessionID, CategoryLexing, l.src.Offset(), 0, "", err)
}

// truncatedSegmentHeader is truncatedMarker's counterpart for the
// 2-byte length field a marker segment starts with.
func (l *Lexer) truncatedSegmentHeader(m Marker, err error) error {
    if err == io.EOF {
        err = ErrTruncatedSegmentHeader
    }
    return wrapErr(l.sessionID, CategoryLexing, l.src.Offset(), byte(m), "length", err)
}

// truncatedECS is ReadECS's wrapper, shared by every Next() call inside
// it: an ECS is only well-formed once a terminating marker is seen, so
// any EOF mid-run is a truncated entropy-coded segment, never a clean end
// of stream.
func (l *Lexer) truncatedECS(err error) error {
    if err == io.EOF {
        err = fmt.Errorf("%w: %v", ErrTruncatedECS, err)
    }
    return wrapErr(l.sessionID, CategoryLexing, l.src.Offset(), 0, "", err)
}

// ReadMarker scans forward past any fill bytes (0xFF runs with a trailing
// 0x00, i.e. an entropy byte-stuffing escape, are not expected here and
// are an error) until it finds a marker code, and returns it. It is only
// ever called at a position the driver knows is not inside entropy-coded
// data.
func (l *Lexer) ReadMarker() (Marker, error) {
    b, err := l.src.Next()
    if err != nil {
        return 0, l.truncatedMarker(err)
    }
    if b != 0xFF {
        return 0, wrapErr(l.sessionID, CategoryLexing, l.src.Offset(), 0, "",
            fmt.Errorf("%w: expected 0xFF, got 0x%02X", ErrUnexpectedMarker, b))
    }
    for {
        b, err = l.src.Next()
        if err != nil {
            return 0, l.truncatedMarker(err)
        }
        if b == 0xFF {
            continue // fill byte before the marker code
        }
        if b == 0x00 {
            return 0, wrapErr(l.sessionID, CategoryLexing, l.src.Offset(), 0, "",
                fmt.Errorf("%w: stuffed byte where a marker was expected", ErrUnexpectedMarker))
        }
        return Marker(b), nil
    }
}

// ReadSegment reads the length-prefixed payload that follows a marker
// already consumed by ReadMarker. The returned slice excludes the two
// length bytes themselves, matching how segment parsers expect it.
func (l *Lexer) ReadSegment(m Marker) ([]byte, error) {
    hi, err := l.src.Next()
    if err != nil {
        return nil, l.truncatedSegmentHeader(m, err)
    }
    lo, err := l.src.Next()
    if err != nil {
        return nil, l.truncatedSegmentHeader(m, err)
    }
    segLen := int(hi)<<8 | int(lo)
    if segLen < 2 {
        return nil, wrapErr(l.sessionID, CategoryLexing, l.src.Offset(), byte(m), "length",
            fmt.Errorf("%w: length %d smaller than the length field itself", ErrBadSegmentLength, segLen))
    }
    payload := make([]byte, segLen-2)
    for i := range payload {
        b, err := l.src.Next()
        if err != nil {
            if err == io.EOF {
                err = ErrTruncatedSegment
            }
            return nil, wrapErr(l.sessionID, CategoryLexing, l.src.Offset(), byte(m), "", err)
        }
        payload[i] = b
    }
    return payload, nil
}

// ReadECS reads entropy-coded bytes up to (but not including) the next
// marker, undoing byte stuffing (0xFF00 -> 0xFF) as it goes and stopping
// before the 0xFF that starts the following marker. Restart markers
// (RSTm) and any other marker terminate the run; the returned marker is
// left unconsumed from the lexer's point of view conceptually but has
// already been read off the source, so the driver receives it directly.
func (l *Lexer) ReadECS() ([]byte, Marker, error) {
    var out []byte
    for {
        b, err := l.src.Next()
        if err != nil {
            return out, 0, l.truncatedECS(err)
        }
        if b != 0xFF {
            out = append(out, b)
            continue
        }
        // b == 0xFF: either a stuffed byte, a fill byte, or a marker.
        nxt, err := l.src.Next()
        if err != nil {
            return out, 0, l.truncatedECS(err)
        }
        switch {
        case nxt == 0x00:
            out = append(out, 0xFF)
        case nxt == 0xFF:
            // fill byte(s): skip them and look past for the real marker
            // code or stuffed-zero.
            for nxt == 0xFF {
                nxt, err = l.src.Next()
                if err != nil {
                    return out, 0, l.truncatedECS(err)
                }
            }
            if nxt == 0x00 {
                out = append(out, 0xFF)
                continue
            }
            return out, Marker(nxt), nil
        default:
            return out, Marker(nxt), nil
        }
    }
}
