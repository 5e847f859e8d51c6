package widget

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownType      = errors.New("unrecognised message type")
)

type messageType uint8

const (
	typeResize messageType = 1
)

// codec encodes and validates messages exchanged between the frame and the
// host. Payloads come from arbitrary windows so decoding inspects the shape
// before trusting any field.
type codec struct{}

func newCodec() *codec {
	return &codec{}
}

func (c *codec) Encode(m *ResizeMessage) ([]byte, error) {
	if m.Height < 0 || math.IsNaN(m.Height) || math.IsInf(m.Height, 0) {
		return nil, fmt.Errorf("failed to encode resize: invalid height %v", m.Height)
	}

	h := m.Height
	b, err := json.Marshal(&message{
		Type:   TypeResize,
		Height: &h,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode resize: %v", err)
	}
	return b, nil
}

func (c *codec) DecodeType(b []byte) (messageType, error) {
	if !gjson.ValidBytes(b) {
		return 0, fmt.Errorf("failed to decode message type: %w: invalid json", ErrMalformedMessage)
	}

	parsed := gjson.ParseBytes(b)
	if !parsed.IsObject() {
		return 0, fmt.Errorf("failed to decode message type: %w: not an object", ErrMalformedMessage)
	}

	t := lastMember(parsed, "type")
	if t.Type != gjson.String {
		return 0, fmt.Errorf("failed to decode message type: %w: missing type", ErrMalformedMessage)
	}

	switch t.Str {
	case TypeResize:
		return typeResize, nil
	default:
		return 0, fmt.Errorf("failed to decode message type: %w: %s", ErrUnknownType, t.Str)
	}
}

func (c *codec) Decode(b []byte) (*ResizeMessage, error) {
	t, err := c.DecodeType(b)
	if err != nil {
		return nil, err
	}

	switch t {
	case typeResize:
		return c.decodeResize(gjson.ParseBytes(b))
	default:
		return nil, fmt.Errorf("failed to decode message: %w: %d", ErrUnknownType, t)
	}
}

func (c *codec) decodeResize(parsed gjson.Result) (*ResizeMessage, error) {
	h := lastMember(parsed, "height")
	if h.Type != gjson.Number {
		return nil, fmt.Errorf("failed to decode resize: %w: height must be a number", ErrMalformedMessage)
	}
	height := h.Float()
	if height < 0 || math.IsInf(height, 0) {
		return nil, fmt.Errorf("failed to decode resize: %w: height out of range", ErrMalformedMessage)
	}

	return &ResizeMessage{
		Height: height,
	}, nil
}

// lastMember returns the value of the last member of obj named key. Browsers
// parse duplicate keys with the last one winning, where gjson.Get returns the
// first.
func lastMember(obj gjson.Result, key string) gjson.Result {
	var v gjson.Result
	obj.ForEach(func(k, value gjson.Result) bool {
		if k.Str == key {
			v = value
		}
		return true
	})
	return v
}
