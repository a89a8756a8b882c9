// Package fill provides default-valued skeletons of messages and fillers that
// fill a message with values read from loosely-typed input.
package fill

import (
	"errors"

	"google.golang.org/protobuf/types/dynamicpb"
)

var (
	ErrCodecMismatch = errors.New("unsupported codec")
)

// Filler tries to correspond input text to a message.
type Filler interface {
	// Fill receives a message v and corresponds input that is have internally to the message.
	// Fill may return these errors:
	//
	//   - io.EOF: At the end of input.
	//   - ErrCodecMismatch: If the input can't be decoded.
	//
	Fill(v *dynamicpb.Message) error
}
