package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxMessageLength bounds the payload a reader accepts. It fits a board of
// side 1000.
const MaxMessageLength = 1 << 21

type MessageHandler func([]byte) error

// Dispatcher routes framed messages to the handler registered for their type.
type Dispatcher struct {
	messageHandlers map[MessageType]MessageHandler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{messageHandlers: make(map[MessageType]MessageHandler)}
}

func (d *Dispatcher) RegisterHandler(msgType MessageType, handlerFunc MessageHandler) {
	d.messageHandlers[msgType] = handlerFunc
}

func (d *Dispatcher) HandleMessage(bytes []byte) error {
	if len(bytes) < HeaderLength {
		return fmt.Errorf("Data too short to decode")
	}
	msgType := MessageType(bytes[0])
	handlerFunc, exists := d.messageHandlers[msgType]
	if !exists {
		return fmt.Errorf("No handler registered for message type: %d", msgType)
	}
	return handlerFunc(bytes)
}

// ReadMessage reads one framed message, header included.
func ReadMessage(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderLength)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	messageLength := int(binary.BigEndian.Uint32(header[2:HeaderLength]))
	if messageLength > MaxMessageLength {
		return nil, fmt.Errorf("message of %d bytes exceeds limit: %w", messageLength, ErrInvalidPayloadSize)
	}
	message := make([]byte, messageLength+HeaderLength)
	copy(message[0:HeaderLength], header)
	if _, err := io.ReadFull(r, message[HeaderLength:]); err != nil {
		return nil, err
	}
	return message, nil
}

// Serve reads messages from r until EOF and hands each to the dispatcher.
func (d *Dispatcher) Serve(r io.Reader) error {
	for {
		message, err := ReadMessage(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := d.HandleMessage(message); err != nil {
			return err
		}
	}
}
