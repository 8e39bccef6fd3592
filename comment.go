package jpeg

// Comment is the raw payload of a COM segment, passed through uninterpreted.
type Comment []byte

// AppData is the raw payload of an APPn segment that this decoder does
// not parse into a structured form (any APPn except an APP0 carrying a
// JFIF/JFXX signature or an APP1 carrying an Exif signature), passed
// through so a caller can interpret it itself.
type AppData struct {
    N       int
    Payload []byte
}
