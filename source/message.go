// Package source acquires raw message payloads from JetStream and hands
// them to the pipeline with explicit acknowledgment control.
//
// In subscription mode the reader binds to a durable consumer, so multiple
// concurrent readers share one delivery stream without duplication and no
// message is lost across restarts. In topic mode it provisions an ephemeral
// consumer bound to the subject for the lifetime of the run; this mode is
// intended for bounded test runs.
package source

// Message is one raw payload as delivered by the message source, together
// with its acknowledgment handles. The pipeline acks a message only after
// its rows reached the sink, and naks it to request redelivery.
type Message struct {
	Data []byte

	ack func() error
	nak func() error
}

// NewMessage wraps a payload with its acknowledgment handles. Nil handles
// are treated as no-ops, which keeps test fakes small.
func NewMessage(data []byte, ack, nak func() error) Message {
	return Message{Data: data, ack: ack, nak: nak}
}

// Ack acknowledges the message to the source so it is not redelivered.
func (m Message) Ack() error {
	if m.ack == nil {
		return nil
	}
	return m.ack()
}

// Nak asks the source to redeliver the message later.
func (m Message) Nak() error {
	if m.nak == nil {
		return nil
	}
	return m.nak()
}
