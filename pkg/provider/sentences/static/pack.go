package static

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mzaiser/dictee/pkg/provider/sentences"
)

// Pack is the top-level structure of a sentence pack YAML file.
type Pack struct {
	Meta      PackMeta             `yaml:"pack"`
	Sentences []sentences.Sentence `yaml:"sentences"`
}

// PackMeta holds top-level metadata for a pack.
type PackMeta struct {
	// Name is the pack's display name.
	Name string `yaml:"name"`

	// Language is the default language tag applied to sentences that do
	// not set their own.
	Language string `yaml:"language"`

	// Level is the default level applied to sentences that do not set
	// their own. Optional.
	Level string `yaml:"level"`
}

// LoadPack reads and parses a sentence pack YAML file from disk.
// Returns a descriptive error if the file cannot be opened or parsed.
func LoadPack(path string) (*Pack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("static: open pack file %q: %w", path, err)
	}
	defer f.Close()

	p, err := LoadPackFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("static: parse pack file %q: %w", path, err)
	}
	return p, nil
}

// LoadPackFromReader parses pack YAML from an [io.Reader].
// The reader is consumed entirely; the caller is responsible for closing it.
func LoadPackFromReader(r io.Reader) (*Pack, error) {
	var p Pack
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos in pack files
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("static: decode pack yaml: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Pack) validate() error {
	for i, s := range p.Sentences {
		if s.Text == "" {
			return fmt.Errorf("static: pack %q: sentence %d has no text", p.Meta.Name, i)
		}
		if s.Language == "" && p.Meta.Language == "" {
			return fmt.Errorf("static: pack %q: sentence %d has no language and the pack sets no default", p.Meta.Name, i)
		}
	}
	return nil
}

// resolved returns the pack's sentences with pack-level defaults applied
// and IDs synthesized for sentences that omit one.
func (p *Pack) resolved() []sentences.Sentence {
	out := make([]sentences.Sentence, len(p.Sentences))
	for i, s := range p.Sentences {
		if s.Language == "" {
			s.Language = p.Meta.Language
		}
		if s.Level == "" {
			s.Level = p.Meta.Level
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("%s-%d", p.Meta.Name, i)
		}
		out[i] = s
	}
	return out
}
