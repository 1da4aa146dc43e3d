package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	m "github.com/pavzaj/visualmutator/internal/model"
)

// TestTreeStore loads test selection forests.
type TestTreeStore interface {
	LoadForest(ctx context.Context, path m.Path) ([]*m.TestNode, error)
}

// YAMLTestTreeStore reads forests written as
//
//	namespaces:
//	  - name: N1
//	    included: true
//	    classes:
//	      - name: C1
//	        methods:
//	          - name: m1
//	            included: false
//
// An omitted included key leaves the node unset.
type YAMLTestTreeStore struct {
	fs afero.Fs
}

// NewYAMLTestTreeStore constructs a store backed by fs.
func NewYAMLTestTreeStore(fs afero.Fs) *YAMLTestTreeStore {
	return &YAMLTestTreeStore{fs: fs}
}

type forestDocument struct {
	Namespaces []namespaceDocument `yaml:"namespaces"`
}

type namespaceDocument struct {
	Name     string          `yaml:"name"`
	Included *bool           `yaml:"included"`
	Classes  []classDocument `yaml:"classes"`
}

type classDocument struct {
	Name     string           `yaml:"name"`
	Included *bool            `yaml:"included"`
	Methods  []methodDocument `yaml:"methods"`
}

type methodDocument struct {
	Name     string `yaml:"name"`
	Included *bool  `yaml:"included"`
}

var errUnnamedNode = errors.New("test tree node without a name")

// LoadForest implements TestTreeStore.
func (s *YAMLTestTreeStore) LoadForest(ctx context.Context, path m.Path) ([]*m.TestNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := afero.ReadFile(s.fs, string(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read test tree %s: %w", path, err)
	}

	return ParseForest(content)
}

// ParseForest decodes a YAML test forest.
func ParseForest(content []byte) ([]*m.TestNode, error) {
	var doc forestDocument
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse test tree: %w", err)
	}

	forest := make([]*m.TestNode, 0, len(doc.Namespaces))

	for _, ns := range doc.Namespaces {
		if ns.Name == "" {
			return nil, errUnnamedNode
		}

		nsNode := m.NewNamespaceNode(ns.Name, m.InclusionOf(ns.Included))

		for _, cls := range ns.Classes {
			if cls.Name == "" {
				return nil, fmt.Errorf("%w in namespace %s", errUnnamedNode, ns.Name)
			}

			clsNode := m.NewClassNode(ns.Name, cls.Name, m.InclusionOf(cls.Included))

			for _, meth := range cls.Methods {
				if meth.Name == "" {
					return nil, fmt.Errorf("%w in class %s", errUnnamedNode, clsNode.FullName())
				}

				clsNode.Children = append(clsNode.Children, m.NewMethodNode(clsNode.FullName(), meth.Name, m.InclusionOf(meth.Included)))
			}

			nsNode.Children = append(nsNode.Children, clsNode)
		}

		forest = append(forest, nsNode)
	}

	return forest, nil
}
