package manifest

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLCodec edits YAML manifests through the yaml.v3 node tree, which
// keeps key order and comments.
type YAMLCodec struct{}

// SetVersion implements Codec. Only the first document of a multi-document
// stream is edited; the others are re-encoded unchanged.
func (YAMLCodec) SetVersion(data []byte, version string, indent int) ([]byte, string, error) {
	docs, err := decodeDocuments(data)
	if err != nil {
		return nil, "", err
	}
	if len(docs) == 0 || len(docs[0].Content) == 0 {
		return nil, "", errors.New("manifest is empty")
	}
	root := docs[0].Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, "", ErrNotMapping
	}

	previous := setVersionNode(root, version)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return nil, "", err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), previous, nil
}

func decodeDocuments(data []byte) ([]*yaml.Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []*yaml.Node
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
}

// setVersionNode sets the version key of mapping root, appending it when
// absent, and returns the previous scalar value.
func setVersionNode(root *yaml.Node, version string) string {
	var previous string
	found := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Value != VersionKey {
			continue
		}
		if value.Kind == yaml.ScalarNode {
			previous = value.Value
		} else {
			value.Style = 0
		}
		value.Kind = yaml.ScalarNode
		value.Tag = "!!str"
		value.Value = version
		value.Content = nil
		value.Alias = nil
		found = true
	}
	if !found {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: VersionKey},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: version},
		)
	}
	return previous
}
