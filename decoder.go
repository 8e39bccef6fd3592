package jpeg

import (
    "io"

    "github.com/google/uuid"
)

// Decoder is the library's entry point: it wraps a ByteSource and a
// Driver, stamping the session with a UUID so diagnostics from many
// concurrently running decoders remain distinguishable after the fact.
type Decoder struct {
    SessionID string
    driver    *Driver
}

// NewDecoder builds a Decoder reading JPEG marker data from r.
func NewDecoder(r io.Reader) *Decoder {
    id := uuid.New().String()
    return &Decoder{
        SessionID: id,
        driver:    NewDriver(NewReaderSource(r), id),
    }
}

// NewDecoderFromBytes builds a Decoder over an in-memory buffer.
func NewDecoderFromBytes(data []byte) *Decoder {
    id := uuid.New().String()
    return &Decoder{
        SessionID: id,
        driver:    NewDriver(NewSliceSource(data), id),
    }
}

// Next returns the next structural event in the stream. Callers drive
// the whole decode by calling Next in a loop until it returns io.EOF.
func (d *Decoder) Next() (Event, error) {
    return d.driver.Next()
}

// Decode drains the entire stream into a Summary, for callers that want
// the whole structural shape of a file rather than streaming events.
func (d *Decoder) Decode() (*Summary, error) {
    s := &Summary{SessionID: d.SessionID}
    for {
        ev, err := d.Next()
        if err == io.EOF {
            return s, nil
        }
        if err != nil {
            return s, err
        }
        s.apply(ev)
    }
}

// Summary aggregates the events of a full decode into the pieces a
// caller most often wants, without needing to replay the event stream.
type Summary struct {
    SessionID string
    Frame     *Frame
    JFIF      *JFIF
    Exif      *Exif
    Scans     []*ScanPlan
    Comments  []Comment
    AppData   []AppData
    Lines     int
}

func (s *Summary) apply(ev Event) {
    switch e := ev.(type) {
    case EventFrame:
        s.Frame = e.Frame
    case EventJFIF:
        s.JFIF = e.JFIF
    case EventExif:
        s.Exif = e.Exif
    case EventScanStart:
        s.Scans = append(s.Scans, e.Plan)
    case EventComment:
        s.Comments = append(s.Comments, e.Comment)
    case EventApp:
        s.AppData = append(s.AppData, e.Data)
    case EventDNL:
        s.Lines = e.Lines
    }
}
