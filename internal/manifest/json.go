package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// JSONCodec edits JSON manifests. Only the top-level object is decoded;
// nested values are kept as raw JSON and re-indented, so key order and
// number literals survive the rewrite.
type JSONCodec struct{}

type jsonMember struct {
	key   string
	value json.RawMessage
}

// SetVersion implements Codec.
func (JSONCodec) SetVersion(data []byte, version string, indent int) ([]byte, string, error) {
	members, err := decodeJSONObject(data)
	if err != nil {
		return nil, "", err
	}

	encoded, err := marshalJSONString(version)
	if err != nil {
		return nil, "", err
	}

	var previous string
	found := false
	for i := range members {
		if members[i].key != VersionKey {
			continue
		}
		previous = jsonScalarText(members[i].value)
		members[i].value = encoded
		found = true
	}
	if !found {
		members = append(members, jsonMember{key: VersionKey, value: encoded})
	}

	out, err := encodeJSONObject(members, indent)
	if err != nil {
		return nil, "", err
	}
	if bytes.HasSuffix(data, []byte("\n")) {
		out = append(out, '\n')
	}
	return out, previous, nil
}

// decodeJSONObject splits a JSON object into its members, in order.
func decodeJSONObject(data []byte) ([]jsonMember, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotMapping
	}

	var members []jsonMember
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in object key position", keyTok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decoding value of %q: %w", key, err)
		}
		members = append(members, jsonMember{key: key, value: value})
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level object")
	}
	return members, nil
}

// encodeJSONObject writes members as an indented JSON object.
func encodeJSONObject(members []jsonMember, indent int) ([]byte, error) {
	if len(members) == 0 {
		return []byte("{}"), nil
	}

	pad := strings.Repeat(" ", indent)
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, m := range members {
		key, err := marshalJSONString(m.key)
		if err != nil {
			return nil, err
		}
		buf.WriteString(pad)
		buf.Write(key)
		buf.WriteString(": ")
		if err := json.Indent(&buf, m.value, pad, pad); err != nil {
			return nil, fmt.Errorf("encoding value of %q: %w", m.key, err)
		}
		if i < len(members)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalJSONString encodes s without HTML escaping.
func marshalJSONString(s string) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// jsonScalarText returns a string value unquoted and any other value as its literal text.
func jsonScalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
