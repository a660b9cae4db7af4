package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Encoding names an index compression codec. It is passed verbatim to the
// toolchain, which rejects unknown values itself.
type Encoding string

// Algorithm names a query processing strategy, passed verbatim to the toolchain.
type Algorithm string

// CollectionKind decides how the raw documents of a collection are located
// and fed to the parser.
type CollectionKind int

const (
	// WashingtonPost is the WashingtonPost.v2 JSON-lines collection.
	WashingtonPost CollectionKind = iota
	// TrecWeb is a gzipped TREC web collection such as Gov2.
	TrecWeb
	// Warc is a collection of gzipped WARC files such as ClueWeb.
	Warc
)

var collectionKindNames = map[CollectionKind]string{
	WashingtonPost: "wapo",
	TrecWeb:        "trecweb",
	Warc:           "warc",
}

func (k CollectionKind) String() string {
	if name, ok := collectionKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseCollectionKind resolves a collection kind from its configuration name.
func ParseCollectionKind(name string) (CollectionKind, error) {
	for kind, n := range collectionKindNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown collection type: %s", name)
}

// Collection is a tested document collection and where its indexes live.
type Collection struct {
	Name string
	Kind CollectionKind

	// CollectionDir is the root of the raw documents.
	CollectionDir string

	// ForwardIndex and InvertedIndex are index basenames; every artifact
	// path is derived from them by appending a suffix.
	ForwardIndex  string
	InvertedIndex string

	// Encodings are compressed in this order.
	Encodings []Encoding
}

// Terms is the path of the forward index term list.
func (c *Collection) Terms() string { return c.ForwardIndex + ".terms" }

// Documents is the path of the forward index document list.
func (c *Collection) Documents() string { return c.ForwardIndex + ".documents" }

// TermMap is the path of the term lexicon.
func (c *Collection) TermMap() string { return c.ForwardIndex + ".termmap" }

// DocMap is the path of the document lexicon.
func (c *Collection) DocMap() string { return c.ForwardIndex + ".docmap" }

// CompressedIndex is the path of the inverted index compressed with enc.
func (c *Collection) CompressedIndex(enc Encoding) string {
	return c.InvertedIndex + "." + string(enc)
}

// WandData is the path of the WAND metadata.
func (c *Collection) WandData() string { return c.InvertedIndex + ".wand" }

type rawCollection struct {
	Name          string   `yaml:"name"`
	Kind          string   `yaml:"kind"`
	CollectionDir string   `yaml:"collection_dir"`
	ForwardIndex  string   `yaml:"forward_index"`
	InvertedIndex string   `yaml:"inverted_index"`
	Encodings     []string `yaml:"encodings"`
}

// resolve validates a collection entry and roots relative index paths at workdir.
func (r rawCollection) resolve(workdir string) (*Collection, error) {
	if r.Name == "" {
		return nil, errors.New("field name missing or not string")
	}
	if r.Kind == "" {
		return nil, errors.New("field kind missing or not string")
	}
	if r.CollectionDir == "" {
		return nil, errors.New("field collection_dir missing or not string")
	}
	kind, err := ParseCollectionKind(r.Kind)
	if err != nil {
		return nil, err
	}

	var encodings []Encoding
	for _, enc := range r.Encodings {
		if enc = strings.TrimSpace(enc); enc != "" {
			encodings = append(encodings, Encoding(enc))
		}
	}
	if len(encodings) == 0 {
		return nil, fmt.Errorf("failed to parse collection %s: no valid encoding entries", r.Name)
	}

	fwd := r.ForwardIndex
	if fwd == "" {
		fwd = filepath.Join("fwd", r.Name)
	}
	inv := r.InvertedIndex
	if inv == "" {
		inv = filepath.Join("inv", r.Name)
	}

	return &Collection{
		Name:          r.Name,
		Kind:          kind,
		CollectionDir: r.CollectionDir,
		ForwardIndex:  rooted(workdir, fwd),
		InvertedIndex: rooted(workdir, inv),
		Encodings:     encodings,
	}, nil
}

func rooted(workdir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workdir, path)
}
