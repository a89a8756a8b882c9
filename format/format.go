// Package format provides formatting APIs for displaying messages the application decoded.
package format

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
)

// MessageFormatter formats messages with a specific formatter implementation.
type MessageFormatter struct {
	impl MessageFormatterInterface
}

// Format formats each of msgs in order.
func (f *MessageFormatter) Format(msgs ...proto.Message) error {
	for _, m := range msgs {
		if err := f.FormatMessage(m); err != nil {
			return err
		}
	}
	return nil
}

// FormatMessage formats m. A nil message is formatted as an empty message.
func (f *MessageFormatter) FormatMessage(m proto.Message) error {
	if m == nil {
		m = &emptypb.Empty{}
	}
	return f.impl.FormatMessage(m)
}

func (f *MessageFormatter) Done() error {
	return f.impl.Done()
}

// NewMessageFormatter formats messages with a specific formatter.
func NewMessageFormatter(f MessageFormatterInterface) *MessageFormatter {
	return &MessageFormatter{impl: f}
}

// MessageFormatterInterface is an interface for formatting messages.
type MessageFormatterInterface interface {
	// FormatMessage formats a message.
	FormatMessage(m proto.Message) error
	// Done indicates all messages are formatted.
	// The client of MessageFormatter should call it at the end.
	Done() error
}
