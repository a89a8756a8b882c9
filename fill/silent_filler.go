package fill

import (
	"encoding/json"
	"io"

	"github.com/ktr0731/protoedit/normalize"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/dynamicpb"
)

// SilentFiller is a Filler implementation that doesn't behave interactive actions.
// It reads JSON values from its input, normalizes them and decodes them with protojson.
type SilentFiller struct {
	dec protojson.UnmarshalOptions
	in  *json.Decoder
}

// SilentFillerOption configures a SilentFiller.
type SilentFillerOption func(*SilentFiller)

// WithUnmarshalOptions sets the options messages are decoded with. Pass a
// resolver to decode google.protobuf.Any values.
func WithUnmarshalOptions(opts protojson.UnmarshalOptions) SilentFillerOption {
	return func(f *SilentFiller) {
		f.dec = opts
	}
}

// NewSilentFiller receives input as io.Reader and returns an instance of SilentFiller.
func NewSilentFiller(in io.Reader, opts ...SilentFillerOption) *SilentFiller {
	dec := json.NewDecoder(in)
	dec.UseNumber()
	f := &SilentFiller{
		in: dec,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fill fills values of each field from a JSON string. If the JSON string is invalid JSON format,
// Fill returns ErrCodecMismatch. If the JSON doesn't fit the message, Fill returns
// the mismatch protojson reports.
func (f *SilentFiller) Fill(v *dynamicpb.Message) error {
	var in interface{}
	if err := f.in.Decode(&in); err != nil {
		if err == io.EOF {
			return err
		}
		return errors.Wrap(ErrCodecMismatch, err.Error())
	}
	return Decode(in, v, f.dec)
}

// Decode normalizes the generic JSON value in against the descriptor of v and
// decodes the result into v with opts.
func Decode(in interface{}, v *dynamicpb.Message, opts protojson.UnmarshalOptions) error {
	md := v.Descriptor()
	in = normalize.WellKnown(normalize.All(in, md), md)

	b, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(ErrCodecMismatch, err.Error())
	}
	if err := opts.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "input doesn't match %s", md.FullName())
	}
	return nil
}
