// Package shortcode generates the unique codes appended to the service base
// URL to form short links.
package shortcode

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CodeIndex answers whether a code is already taken by a live link.
type CodeIndex interface {
	Exists(code string) bool
}

// Generator draws codes of a fixed length uniformly from a configured
// alphabet and re-draws on collision against the index. Generation is a pure
// read-check-retry: the caller must pair it with an atomic insert-if-absent
// to close the race between concurrent callers drawing the same code.
//
// There is no retry bound. The code space (alphabet^length) must vastly
// exceed the live link volume; a configuration that allows otherwise can make
// generation loop effectively forever, which is a config-validity concern,
// not a generator bug.
type Generator struct {
	alphabet string
	length   int
	index    CodeIndex
}

func NewGenerator(alphabet string, length int, index CodeIndex) *Generator {
	return &Generator{alphabet: alphabet, length: length, index: index}
}

// Generate returns a code not currently present in the index.
func (g *Generator) Generate() (string, error) {
	const op = "shortcode.Generator.Generate"

	for {
		code, err := gonanoid.Generate(g.alphabet, g.length)
		if err != nil {
			return "", fmt.Errorf("%s: failed to draw code: %w", op, err)
		}
		if g.index.Exists(code) {
			continue
		}
		return code, nil
	}
}
