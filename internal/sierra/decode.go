package sierra

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Format is an on-disk encoding of a Program.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatMsgpack
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatMsgpack:
		return "msgpack"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".msgpack", ".mp":
		return FormatMsgpack
	case ".json":
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// Decode reads a Program from path; the format follows the extension.
func Decode(path string) (*Program, error) {
	format := FormatFromPath(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%s: unknown program format (expected .yaml, .msgpack or .json)", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}
	prog, err := DecodeBytes(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// DecodeBytes decodes a Program and validates its structure.
func DecodeBytes(data []byte, format Format) (*Program, error) {
	var prog Program
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &prog); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatMsgpack:
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&prog); err != nil {
			return nil, fmt.Errorf("failed to decode msgpack: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&prog); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported program format %s", format)
	}
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	return &prog, nil
}

// Encode serializes a Program. JSON output is indented.
func Encode(prog *Program, format Format) ([]byte, error) {
	if prog == nil {
		return nil, fmt.Errorf("nil program")
	}
	switch format {
	case FormatYAML:
		return yaml.Marshal(prog)
	case FormatMsgpack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		if err := enc.Encode(prog); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(prog, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported program format %s", format)
	}
}
