// Package transport holds the producers feeding bytes into a Commander
// and the responders carrying its output back.
package transport

// Sink receives inbound chunks. *gpiocmd.Commander implements it.
// AppendData must not block and must not retain data.
type Sink interface {
	AppendData(data []byte) error
}
