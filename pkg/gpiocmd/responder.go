package gpiocmd

// Responder receives the output accumulated during one processing cycle.
// data is reused after Respond returns and must be copied if retained.
type Responder interface {
	Respond(data []byte) error
}

// RespondFunc is func form of Responder.
type RespondFunc func(data []byte) error

// Respond implements Responder.
func (f RespondFunc) Respond(data []byte) error {
	return f(data)
}

// Responders fans one flush out to several Responders. All of them are
// called, the first error is returned.
type Responders []Responder

// Respond implements Responder.
func (rs Responders) Respond(data []byte) (err error) {
	for _, r := range rs {
		if e := r.Respond(data); e != nil && err == nil {
			err = e
		}
	}
	return
}

// responseBuffer collects echo, editing feedback and command output
// until flushed.
type responseBuffer struct {
	data []byte
}

func (b *responseBuffer) write(p []byte) {
	b.data = append(b.data, p...)
}

func (b *responseBuffer) writeString(s string) {
	b.data = append(b.data, s...)
}

func (b *responseBuffer) writeLine(s string) {
	b.data = append(append(b.data, s...), crlf...)
}

// flush hands the buffered bytes to r and empties the buffer. Without a
// responder the bytes are dropped.
func (b *responseBuffer) flush(r Responder) (err error) {
	if r != nil {
		err = r.Respond(b.data)
	}
	b.data = b.data[:0]
	return
}
