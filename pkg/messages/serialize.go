package messages

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Encoding selects how a connection's frames are encoded on the wire.
type Encoding int

const (
	// EncodingJSON sends plain JSON in text frames.
	EncodingJSON Encoding = iota
	// EncodingZstd sends zstd-compressed JSON in binary frames.
	EncodingZstd
)

func (e Encoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseEncoding parses the encoding requested by a client. An empty string means JSON.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "", "json":
		return EncodingJSON, nil
	case "zstd":
		return EncodingZstd, nil
	default:
		return EncodingJSON, fmt.Errorf("unknown encoding: %s", s)
	}
}

// EncodeAll and DecodeAll are safe for concurrent use, so one of each is shared.
var (
	encoder *zstd.Encoder
	decoder *zstd.Decoder
)

func init() {
	var err error
	encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd encoder: %v", err))
	}
	decoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxMessageSize), zstd.WithDecoderConcurrency(0))
	if err != nil {
		panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
	}
}

func SerializeMessage(m *Message, enc Encoding) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	switch enc {
	case EncodingJSON:
		return b, nil
	case EncodingZstd:
		return encoder.EncodeAll(b, make([]byte, 0, len(b))), nil
	default:
		return nil, fmt.Errorf("unknown encoding: %v", enc)
	}
}

func DeserializeMessage(data []byte, enc Encoding) (*Message, error) {
	switch enc {
	case EncodingJSON:
	case EncodingZstd:
		b, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, &ErrValidation{Reason: fmt.Sprintf("failed to decompress message: %v", err)}
		}
		data = b
	default:
		return nil, fmt.Errorf("unknown encoding: %v", enc)
	}

	if len(data) > MaxMessageSize {
		return nil, &ErrValidation{Reason: "message too large"}
	}

	m := &Message{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, &ErrValidation{Reason: fmt.Sprintf("failed to unmarshal message: %v", err)}
	}

	return m, nil
}
