package jpeg

import "fmt"

// parseDRI decodes a Define Restart Interval segment: two bytes giving
// the number of MCUs between restart markers (0 disables restarts).
func parseDRI(payload []byte) (int, error) {
    if len(payload) != 2 {
        return 0, fmt.Errorf("%w: DRI payload must be exactly 2 bytes, got %d", ErrBadSegmentLength, len(payload))
    }
    return int(payload[0])<<8 | int(payload[1]), nil
}

// parseDNL decodes a Define Number of Lines segment, legal only
// immediately after the first scan's entropy-coded data and before any
// other marker (checked by the driver, not here).
func parseDNL(payload []byte) (int, error) {
    if len(payload) != 2 {
        return 0, fmt.Errorf("%w: DNL payload must be exactly 2 bytes, got %d", ErrBadSegmentLength, len(payload))
    }
    return int(payload[0])<<8 | int(payload[1]), nil
}
