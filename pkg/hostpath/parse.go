package hostpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/blade/pkg/classifier"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/ports"
)

// Roots are the only entry points a path may start from.
var Roots = []string{"context", "data"}

// Step is one move in a path: an attribute name or a container key.
type Step struct {
	Attr  string
	Key   ports.Key
	IsKey bool
}

func (s Step) String() string {
	if s.IsKey {
		return "[" + s.Key.String() + "]"
	}
	return "." + s.Attr
}

// Path is a parsed state path.
type Path struct {
	Root  string
	Steps []Step
}

func (p Path) String() string {
	var b strings.Builder
	b.WriteString(p.Root)
	for _, s := range p.Steps {
		b.WriteString(s.String())
	}
	return b.String()
}

// Parse parses raw into a Path. The host namespace prefix is accepted and
// stripped; the root must be one of Roots.
func Parse(raw string) (Path, error) {
	p := &parser{src: classifier.Sanitize(raw)}
	path, err := p.path()
	if err != nil {
		return Path{}, fmt.Errorf("%w: %q: %v", domain.ErrInvalidPath, raw, err)
	}
	return path, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) path() (Path, error) {
	root, err := p.ident()
	if err != nil {
		return Path{}, err
	}
	if !isRoot(root) {
		return Path{}, fmt.Errorf("root %q is not one of %v", root, Roots)
	}
	out := Path{Root: root}
	for !p.eof() {
		step, err := p.step()
		if err != nil {
			return Path{}, err
		}
		out.Steps = append(out.Steps, step)
	}
	if len(out.Steps) == 0 {
		return Path{}, fmt.Errorf("path has no step after root")
	}
	return out, nil
}

func (p *parser) step() (Step, error) {
	switch p.peek() {
	case '.':
		p.pos++
		name, err := p.ident()
		if err != nil {
			return Step{}, err
		}
		return Step{Attr: name}, nil
	case '[':
		p.pos++
		key, err := p.key()
		if err != nil {
			return Step{}, err
		}
		if p.peek() != ']' {
			return Step{}, fmt.Errorf("expected ']' at offset %d", p.pos)
		}
		p.pos++
		return Step{Key: key, IsKey: true}, nil
	}
	return Step{}, fmt.Errorf("unexpected %q at offset %d", p.peek(), p.pos)
}

func (p *parser) ident() (string, error) {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if isIdentByte(c) || (p.pos > start && c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", fmt.Errorf("expected identifier at offset %d", start)
	}
	return p.src[start:p.pos], nil
}

func (p *parser) key() (ports.Key, error) {
	switch q := p.peek(); q {
	case '\'', '"':
		s, err := p.quoted(q)
		if err != nil {
			return ports.Key{}, err
		}
		return ports.NameKey(s), nil
	}
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		return ports.Key{}, fmt.Errorf("expected index or quoted key at offset %d", start)
	}
	return ports.IndexKey(n), nil
}

func (p *parser) quoted(q byte) (string, error) {
	start := p.pos
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			b.WriteByte(p.src[p.pos+1])
			p.pos += 2
		case c == q:
			p.pos++
			return b.String(), nil
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string starting at offset %d", start)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func isRoot(name string) bool {
	for _, r := range Roots {
		if r == name {
			return true
		}
	}
	return false
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
