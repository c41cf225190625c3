package schema

import (
	"encoding/json"
	"fmt"
	"log"

	"gopkg.in/yaml.v3"
)

// propJSON is one `{name, neo4j_type}` entry under node_props/rel_props.
type propJSON struct {
	Name      string `json:"name" yaml:"name"`
	Neo4jType string `json:"neo4j_type" yaml:"neo4j_type"`
}

type relJSON struct {
	Start   string `json:"start" yaml:"start"`
	End     string `json:"end" yaml:"end"`
	RelType string `json:"rel_type" yaml:"rel_type"`
}

type indexJSON struct {
	Name       string   `json:"name" yaml:"name"`
	Label      string   `json:"label" yaml:"label"`
	Properties []string `json:"properties" yaml:"properties"`
}

type constraintJSON struct {
	Name     string `json:"name" yaml:"name"`
	Label    string `json:"label" yaml:"label"`
	Property string `json:"property" yaml:"property"`
}

type metadataJSON struct {
	Index      []indexJSON      `json:"index" yaml:"index"`
	Constraint []constraintJSON `json:"constraint" yaml:"constraint"`
}

// Document is the wire shape described in spec §6:
// { node_props, rel_props, relationships, metadata: {index[], constraint[]} }.
type Document struct {
	NodeProps     map[string][]propJSON `json:"node_props" yaml:"node_props"`
	RelProps      map[string][]propJSON `json:"rel_props" yaml:"rel_props"`
	Relationships []relJSON             `json:"relationships" yaml:"relationships"`
	Metadata      metadataJSON          `json:"metadata" yaml:"metadata"`
}

// FromDocument builds a Schema from an already-decoded Document. Shared
// by LoadJSON and LoadYAML since both formats decode to the same shape.
func FromDocument(doc *Document) *Schema {
	s := New()
	for label, props := range doc.NodeProps {
		s.AddNodeLabel(label)
		for _, p := range props {
			if p.Name == "" {
				log.Printf("schema: skipping node property with empty name under label %q", label)
				continue
			}
			s.AddNodeProperty(label, p.Name, ParseNeo4jType(p.Neo4jType))
		}
	}
	for relType, props := range doc.RelProps {
		for _, p := range props {
			if p.Name == "" {
				log.Printf("schema: skipping relationship property with empty name under type %q", relType)
				continue
			}
			s.AddRelationshipProperty(relType, p.Name, ParseNeo4jType(p.Neo4jType))
		}
	}
	for _, r := range doc.Relationships {
		if r.RelType == "" {
			log.Printf("schema: skipping relationship entry with empty rel_type")
			continue
		}
		s.AddRelationshipPattern(r.Start, r.End, r.RelType)
	}
	for _, idx := range doc.Metadata.Index {
		s.AddIndexMeta(IndexMeta{Name: idx.Name, Label: idx.Label, Properties: idx.Properties})
	}
	for _, c := range doc.Metadata.Constraint {
		s.AddConstraintMeta(ConstraintMeta{Name: c.Name, Label: c.Label, Property: c.Property})
	}
	return s
}

// LoadJSON decodes the schema wire format described in spec §6.
func LoadJSON(data []byte) (*Schema, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema: decode JSON: %w", err)
	}
	return FromDocument(&doc), nil
}

// LoadYAML decodes the same schema shape authored as YAML. YAML is a
// strict superset of the JSON subset this wire format uses, so the same
// Document struct tags (augmented with yaml tags) decode it directly —
// this widens spec §6's "Schemas are supplied as ... JSON" without
// changing the shape itself.
func LoadYAML(data []byte) (*Schema, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema: decode YAML: %w", err)
	}
	return FromDocument(&doc), nil
}
