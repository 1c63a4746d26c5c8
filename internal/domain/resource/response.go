package resource

// Response is the payload a module delivers for a fetched URL. It is
// consumed exactly once by the continuation it is delivered to.
type Response struct {
	URL  URL
	Data []byte
	MIME string
	Meta map[string]string
}

// Len is the payload length.
func (r Response) Len() int {
	return len(r.Data)
}

// Empty reports a zero-length or absent payload.
func (r Response) Empty() bool {
	return len(r.Data) == 0
}

// Text returns the payload as a string.
func (r Response) Text() string {
	return string(r.Data)
}

// Get returns a metadata value.
func (r Response) Get(key string) string {
	if r.Meta == nil {
		return ""
	}
	return r.Meta[key]
}
