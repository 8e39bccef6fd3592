package jpeg

import (
    "fmt"
    "io"

    "github.com/jrm-1535/jpegstruct/internal/bitio"
)

// Event is the sum type the driver emits, one per marker or coherent run
// of entropy-coded data. Concrete event types are small structs with
// exported fields; callers switch on the dynamic type.
type Event interface{ isEvent() }

type EventSOI struct{}
type EventFrame struct{ Frame *Frame }
type EventScanStart struct{ Plan *ScanPlan }
type EventECS struct{ Data []byte } // de-stuffed entropy bytes up to the next marker

// Bits wraps the ECS's already-destuffed bytes in the C8 bit-cursor an
// entropy decoder consumes: peek/consume over 16-bit windows with
// padding past the real data, per spec.md §4.7. Each EventECS gets its
// own Reader since restart markers split one scan into several ECS runs.
func (e EventECS) Bits() *bitio.Reader { return bitio.New(e.Data) }
type EventRestart struct{ Index int }
type EventScanEnd struct{}
type EventDNL struct{ Lines int }
type EventJFIF struct{ JFIF *JFIF }
type EventJFXX struct{ Ext *JFXXExtension }
type EventExif struct{ Exif *Exif }
type EventApp struct{ Data AppData }
type EventComment struct{ Comment Comment }
type EventEOI struct{}

func (EventSOI) isEvent()       {}
func (EventFrame) isEvent()     {}
func (EventScanStart) isEvent() {}
func (EventECS) isEvent()       {}
func (EventRestart) isEvent()   {}
func (EventScanEnd) isEvent()   {}
func (EventDNL) isEvent()       {}
func (EventJFIF) isEvent()      {}
func (EventJFXX) isEvent()      {}
func (EventExif) isEvent()      {}
func (EventApp) isEvent()       {}
func (EventComment) isEvent()   {}
func (EventEOI) isEvent()       {}

// driverState is the coarse phase of the marker-stream grammar: SOI,
// then application/table segments, then a frame header, then one or more
// scans, then EOI.
type driverState int

const (
    stateExpectSOI driverState = iota
    stateExpectFrame
    stateHaveFrame
    stateInScan
    stateEnded
)

// Driver runs the marker-stream state machine described by the external
// interfaces: it pulls markers and segments from a Lexer, validates
// sequencing, and emits one Event per call to Next.
type Driver struct {
    lexer     *Lexer
    sessionID string
    state     driverState

    quant   quantTables
    huff    huffmanTables
    frame   *Frame
    tracker *progressionTracker

    restartInterval int
    restartPhase    int // 0-7 cycle the next RSTm marker's index must follow
    scanCount       int
    sawFirstECS     bool // true once the first scan's entropy data has been emitted
    dnlWindowOpen   bool // true only directly after the first scan's ECS, before any other marker

    // queue holds events already produced but not yet returned from Next,
    // for the cases where reading one marker's worth of input yields
    // more than one logical event (trailing ECS bytes, then ScanEnd,
    // then whatever marker followed).
    queue []Event
}

// NewDriver constructs a Driver reading from src, stamped with the given
// session identifier for error and log attribution.
func NewDriver(src ByteSource, sessionID string) *Driver {
    return &Driver{
        lexer:     newLexer(src, sessionID),
        sessionID: sessionID,
        state:     stateExpectSOI,
        tracker:   newProgressionTracker(),
    }
}

func (d *Driver) err(cat Category, marker Marker, field string, e error) error {
    off := d.lexer.src.Offset()
    return wrapErr(d.sessionID, cat, off, byte(marker), field, e)
}

// Next advances the state machine by one step and returns the Event that
// step produced. It returns io.EOF once EOI has already been emitted and
// there is nothing left to read.
func (d *Driver) Next() (Event, error) {
    if len(d.queue) > 0 {
        ev := d.queue[0]
        d.queue = d.queue[1:]
        return ev, nil
    }

    if d.state == stateEnded {
        return nil, io.EOF
    }

    if d.state == stateInScan {
        return d.readScanBody()
    }

    m, err := d.lexer.ReadMarker()
    if err != nil {
        return nil, err
    }
    return d.handleMarker(m)
}

func (d *Driver) handleMarker(m Marker) (Event, error) {
    if d.state == stateExpectSOI && m != markerSOI {
        return nil, d.err(CategoryLexing, m, "", fmt.Errorf("%w", ErrNoSOI))
    }
    switch {
    case m == markerSOI:
        if d.state != stateExpectSOI {
            return nil, d.err(CategoryLexing, m, "", fmt.Errorf("%w: duplicate SOI", ErrUnexpectedMarker))
        }
        d.state = stateExpectFrame
        d.dnlWindowOpen = false
        return EventSOI{}, nil

    case m == markerEOI:
        if d.state == stateExpectFrame {
            return nil, d.err(CategoryDecoding, m, "", ErrPrematureEOI)
        }
        d.state = stateEnded
        return EventEOI{}, nil

    case m == markerDQT:
        return d.handleDQT(m)
    case m == markerDHT:
        return d.handleDHT(m)
    case m == markerDRI:
        return d.handleDRI(m)
    case m == markerDNL:
        return d.handleDNL(m)
    case m == markerCOM:
        return d.handleCOM(m)
    case isSOFn(m):
        return d.handleSOF(m)
    case m == markerSOS:
        return d.handleSOS(m)
    }
    if idx, ok := isRST(m); ok {
        // A restart marker arriving here (not consumed inline by
        // readScanBody) means it showed up outside of scan data.
        return nil, d.err(CategoryParsing, m, "", fmt.Errorf("%w: RST%d outside scan", ErrRestartPhase, idx))
    }
    if n, ok := isAPPn(m); ok {
        return d.handleAPPn(m, n)
    }
    if isReserved(m) {
        return nil, d.err(CategoryLexing, m, "", fmt.Errorf("%w: 0x%02X", ErrReservedMarker, byte(m)))
    }
    return nil, d.err(CategoryLexing, m, "", fmt.Errorf("%w: 0x%02X", ErrUnsupportedMarker, byte(m)))
}

func (d *Driver) requireState(states ...driverState) bool {
    for _, s := range states {
        if d.state == s {
            return true
        }
    }
    return false
}

func (d *Driver) handleDQT(m Marker) (Event, error) {
    if !d.requireState(stateExpectFrame, stateHaveFrame) {
        return nil, d.err(CategoryParsing, m, "", fmt.Errorf("%w: DQT", ErrUnexpectedMarker))
    }
    payload, err := d.lexer.ReadSegment(m)
    if err != nil {
        return nil, err
    }
    d.dnlWindowOpen = false
    tables, err := parseDQT(payload)
    if err != nil {
        return nil, d.err(CategoryParsing, m, "", err)
    }
    for slot, t := range tables {
        d.quant.set(slot, t)
    }
    return d.Next()
}

func (d *Driver) handleDHT(m Marker) (Event, error) {
    if !d.requireState(stateExpectFrame, stateHaveFrame) {
        return nil, d.err(CategoryParsing, m, "", fmt.Errorf("%w: DHT", ErrUnexpectedMarker))
    }
    payload, err := d.lexer.ReadSegment(m)
    if err != nil {
        return nil, err
    }
    d.dnlWindowOpen = false
    tables, err := parseDHT(payload)
    if err != nil {
        return nil, d.err(CategoryParsing, m, "", err)
    }
    for _, t := range tables {
        d.huff.set(t)
    }
    return d.Next()
}

func (d *Driver) handleDRI(m Marker) (Event, error) {
    if !d.requireState(stateExpectFrame, stateHaveFrame) {
        return nil, d.err(CategoryParsing, m, "", fmt.Errorf("%w: DRI", ErrUnexpectedMarker))
    }
    payload, err := d.lexer.ReadSegment(m)
    if err != nil {
        return nil, err
    }
    d.dnlWindowOpen = false
    interval, err := parseDRI(payload)
    if err != nil {
        return nil, d.err(CategoryParsing, m, "", err)
    }
    d.restartInterval = interval
    return d.Next()
}

func (d *Driver) handleDNL(m Marker) (Event, error) {
    payload, err := d.lexer.ReadSegment(m)
    if err != nil {
        return nil, err
    }
    if !d.dnlWindowOpen {
        return nil, d.err(CategoryParsing, m, "", ErrDNLNotLegalHere)
    }
    d.dnlWindowOpen = false
    lines, err := parseDNL(payload)
    if err != nil {
        return nil, d.err(CategoryParsing, m, "", err)
    }
    if d.frame != nil && d.frame.Lines == 0 {
        d.frame.Lines = lines
    }
    return EventDNL{Lines: lines}, nil
}

func (d *Driver) handleCOM(m Marker) (Event, error) {
    payload, err := d.lexer.ReadSegment(m)
    if err != nil {
        return nil, err
    }
    d.dnlWindowOpen = false
    return EventComment{Comment: append(Comment(nil), payload...)}, nil
}

func (d *Driver) handleSOF(m Marker) (Event, error) {
    if !d.requireState(stateExpectFrame) {
        return nil, d.err(CategoryParsing, m, "", fmt.Errorf("%w: SOFn", ErrUnexpectedMarker))
    }
    switch m {
    case markerSOF0, markerSOF1, markerSOF2:
    default:
        return nil, d.err(CategoryDecoding, m, "", fmt.Errorf("%w: %s (arithmetic, hierarchical, or lossless coding not supported)", ErrUnsupportedProcess, m))
    }
    payload, err := d.lexer.ReadSegment(m)
    if err != nil {
        return nil, err
    }
    d.dnlWindowOpen = false
    frame, err := parseSOFn(m, payload)
    if err != nil {
        return nil, d.err(CategoryParsing, m, "", err)
    }
    for _, c := range frame.Components {
        if c.QuantSlot > 3 {
            return nil, d.err(CategoryParsing, m, "QuantSlot", fmt.Errorf("%w: %d", ErrUnknownQuantSlot, c.QuantSlot))
        }
    }
    d.frame = frame
    d.state = stateHaveFrame
    return EventFrame{Frame: frame}, nil
}

func (d *Driver) handleAPPn(m Marker, n int) (Event, error) {
    payload, err := d.lexer.ReadSegment(m)
    if err != nil {
        return nil, err
    }
    d.dnlWindowOpen = false
    switch n {
    case 0:
        jfif, jfxx, err := parseAPP0(payload)
        if err != nil {
            return nil, d.err(CategoryParsing, m, "", err)
        }
        if jfif != nil {
            return EventJFIF{JFIF: jfif}, nil
        }
        if jfxx != nil {
            return EventJFXX{Ext: jfxx}, nil
        }
    case 1:
        exif, err := parseAPP1Exif(payload)
        if err != nil {
            return nil, d.err(CategoryParsing, m, "", err)
        }
        if exif != nil {
            return EventExif{Exif: exif}, nil
        }
    }
    return EventApp{Data: AppData{N: n, Payload: append([]byte(nil), payload...)}}, nil
}

func (d *Driver) handleSOS(m Marker) (Event, error) {
    if !d.requireState(stateHaveFrame) {
        return nil, d.err(CategoryParsing, m, "", fmt.Errorf("%w: SOS", ErrUnexpectedMarker))
    }
    payload, err := d.lexer.ReadSegment(m)
    if err != nil {
        return nil, err
    }
    d.dnlWindowOpen = false
    header, err := parseSOS(payload)
    if err != nil {
        return nil, d.err(CategoryParsing, m, "", err)
    }
    progressive := isProgressive(d.frame.Process)
    dcOnlyScan := progressive && header.Ss == 0
    acOnlyScan := progressive && header.Ss > 0
    for _, ch := range header.Components {
        if !acOnlyScan {
            if _, err := d.huff.get(0, ch.DCSlot); err != nil {
                return nil, d.err(CategoryParsing, m, "DCSlot", err)
            }
        }
        if !dcOnlyScan {
            if _, err := d.huff.get(1, ch.ACSlot); err != nil {
                return nil, d.err(CategoryParsing, m, "ACSlot", err)
            }
        }
        if fc, idx := d.frame.componentByID(ch.ComponentID); idx != -1 {
            qt, err := d.quant.get(fc.QuantSlot)
            if err != nil {
                return nil, d.err(CategoryDecoding, m, "QuantSlot", err)
            }
            if d.frame.Precision == 8 && qt.Precision != 8 {
                return nil, d.err(CategoryDecoding, m, "QuantSlot",
                    fmt.Errorf("%w: frame precision 8 but slot %d is %d-bit", ErrQuantPrecisionMismatch, fc.QuantSlot, qt.Precision))
            }
        }
    }
    plan, err := composeScan(header, d.frame, progressive, d.tracker, d.restartInterval)
    if err != nil {
        return nil, d.err(CategoryParsing, m, "", err)
    }
    d.state = stateInScan
    d.scanCount++
    d.restartPhase = 0
    return EventScanStart{Plan: plan}, nil
}

// readScanBody reads one run of entropy-coded data up to the next
// marker, validating restart-marker phase, and returns it as an EventECS
// (or, if the run is empty, returns the next event directly: the
// EventRestart for a restart marker, or EventScanEnd for a terminating
// marker, with that marker's own event queued behind it).
func (d *Driver) readScanBody() (Event, error) {
    data, next, err := d.lexer.ReadECS()
    if err != nil {
        return nil, err
    }
    if idx, ok := isRST(next); ok {
        if d.restartInterval == 0 {
            return nil, d.err(CategoryDecoding, next, "", fmt.Errorf("%w: RST%d with no DRI in effect", ErrMissingRestartInterval, idx))
        }
        expected := d.restartPhase
        if idx != expected {
            return nil, d.err(CategoryDecoding, next, "", fmt.Errorf("%w: got RST%d, expected RST%d", ErrRestartPhase, idx, expected))
        }
        d.restartPhase = (d.restartPhase + 1) % 8
        if len(data) > 0 {
            d.queue = append(d.queue, EventRestart{Index: idx})
            return EventECS{Data: data}, nil
        }
        return EventRestart{Index: idx}, nil
    }

    // any other marker ends the scan.
    d.state = stateHaveFrame
    if d.scanCount == 1 && !d.sawFirstECS {
        d.dnlWindowOpen = true
    }
    d.sawFirstECS = true

    markerEvent, err := d.handleMarker(next)
    if err != nil {
        return nil, err
    }
    d.queue = append(d.queue, EventScanEnd{}, markerEvent)
    if len(data) > 0 {
        return EventECS{Data: data}, nil
    }
    head := d.queue[0]
    d.queue = d.queue[1:]
    return head, nil
}
