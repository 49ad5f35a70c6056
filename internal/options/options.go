// Package options parses the directive option block attached to an annotated
// declaration: include(...), exclude(...) and traits(...).
package options

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/agentic-research/platgate/internal/platform"
)

// Trait is one required capability path from traits(...).
type Trait struct {
	Path  string
	Range hcl.Range
}

// Options is a parsed option block.
type Options struct {
	Include []platform.Group
	Exclude []platform.Group
	Traits  []Trait
	// Range covers the whole block and anchors resolver diagnostics.
	Range hcl.Range
}

// TraitPaths returns the trait paths in declared order.
func (o *Options) TraitPaths() []string {
	out := make([]string, len(o.Traits))
	for i, t := range o.Traits {
		out[i] = t.Path
	}
	return out
}

// Parse parses src, which starts at rng.Start in rng.Filename. traits(...) is
// only accepted when allowTraits is set. An empty include list is replaced by
// exactly {all}. Any error is fatal and reported as a single diagnostic.
func Parse(src []byte, rng hcl.Range, allowTraits bool) (*Options, hcl.Diagnostics) {
	// Lexer diagnostics are ignored: tabs, quotes and the like are only
	// meaningful inside trait paths, and the parser rejects anything else.
	tokens, _ := hclsyntax.LexExpression(src, rng.Filename, rng.Start)
	p := &parser{
		src:         src,
		base:        rng.Start.Byte,
		tokens:      significant(tokens),
		allowTraits: allowTraits,
		opts:        &Options{Range: rng},
	}
	if diag := p.parse(); diag != nil {
		return nil, hcl.Diagnostics{diag}
	}
	if len(p.opts.Include) == 0 {
		p.opts.Include = []platform.Group{platform.GroupAll}
	}
	return p.opts, nil
}

// ParseString is Parse for ad-hoc option text, positioned at line 1.
func ParseString(src, filename string, allowTraits bool) (*Options, hcl.Diagnostics) {
	start := hcl.InitialPos
	end := start
	end.Byte = len(src)
	end.Column += len(src)
	return Parse([]byte(src), hcl.Range{Filename: filename, Start: start, End: end}, allowTraits)
}

func significant(tokens hclsyntax.Tokens) hclsyntax.Tokens {
	out := make(hclsyntax.Tokens, 0, len(tokens))
	for _, tok := range tokens {
		switch tok.Type {
		case hclsyntax.TokenNewline, hclsyntax.TokenTabs, hclsyntax.TokenComment:
			continue
		}
		out = append(out, tok)
	}
	return out
}

type parser struct {
	src         []byte
	base        int
	tokens      hclsyntax.Tokens
	pos         int
	allowTraits bool
	opts        *Options
}

func (p *parser) peek() hclsyntax.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return hclsyntax.Token{Type: hclsyntax.TokenEOF, Range: p.opts.Range}
}

func (p *parser) next() hclsyntax.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *parser) keywords() string {
	if p.allowTraits {
		return "`include`, `exclude` or `traits`"
	}
	return "`include` or `exclude`"
}

func (p *parser) parse() *hcl.Diagnostic {
	for p.peek().Type != hclsyntax.TokenEOF {
		kw := p.next()
		if kw.Type != hclsyntax.TokenIdent {
			return errorAt(kw, "Malformed option block", "Expected "+p.keywords()+".")
		}
		var diag *hcl.Diagnostic
		switch name := string(kw.Bytes); name {
		case "include":
			p.opts.Include, diag = p.groupList(p.opts.Include)
		case "exclude":
			p.opts.Exclude, diag = p.groupList(p.opts.Exclude)
		case "traits":
			if !p.allowTraits {
				return errorAt(kw, "Unsupported option",
					"traits(...) is only accepted on type declarations.")
			}
			diag = p.traitList()
		default:
			return errorAt(kw, "Unknown option",
				fmt.Sprintf("Unknown option %q. Expected %s.", name, p.keywords()))
		}
		if diag != nil {
			return diag
		}

		switch tok := p.peek(); tok.Type {
		case hclsyntax.TokenEOF:
		case hclsyntax.TokenComma:
			p.next()
		default:
			return errorAt(tok, "Malformed option block", "Expected `,` between options.")
		}
	}
	return nil
}

func (p *parser) open() *hcl.Diagnostic {
	if tok := p.next(); tok.Type != hclsyntax.TokenOParen {
		return errorAt(tok, "Malformed option block", "Expected `(` after option name.")
	}
	return nil
}

func (p *parser) groupList(into []platform.Group) ([]platform.Group, *hcl.Diagnostic) {
	if diag := p.open(); diag != nil {
		return into, diag
	}
	for {
		tok := p.next()
		switch tok.Type {
		case hclsyntax.TokenCParen:
			return into, nil
		case hclsyntax.TokenIdent:
			g, ok := platform.ParseGroup(string(tok.Bytes))
			if !ok {
				return into, errorAt(tok, "Unknown platform",
					fmt.Sprintf("Unknown platform %q. Expected one of %s.",
						string(tok.Bytes), strings.Join(platform.Keywords(), ", ")))
			}
			into = append(into, g)
		default:
			return into, errorAt(tok, "Malformed platform list", "Expected a platform name or `)`.")
		}

		switch sep := p.next(); sep.Type {
		case hclsyntax.TokenComma:
		case hclsyntax.TokenCParen:
			return into, nil
		default:
			return into, errorAt(sep, "Malformed platform list", "Expected `,` or `)`.")
		}
	}
}

// traitList reads comma separated trait paths. A path is the raw source
// between separators at nesting depth zero, so generic arguments and
// `?Sized`-style bounds pass through untouched.
func (p *parser) traitList() *hcl.Diagnostic {
	if diag := p.open(); diag != nil {
		return diag
	}
	var run []hclsyntax.Token
	depth := 0
	flush := func() {
		if len(run) == 0 {
			return
		}
		first, last := run[0], run[len(run)-1]
		text := strings.TrimSpace(string(p.src[first.Range.Start.Byte-p.base : last.Range.End.Byte-p.base]))
		p.opts.Traits = append(p.opts.Traits, Trait{
			Path:  text,
			Range: hcl.RangeBetween(first.Range, last.Range),
		})
		run = run[:0]
	}
	for {
		tok := p.next()
		switch tok.Type {
		case hclsyntax.TokenEOF:
			return errorAt(tok, "Malformed trait list", "Unclosed traits(...) list.")
		case hclsyntax.TokenOParen, hclsyntax.TokenLessThan, hclsyntax.TokenOBrack:
			depth++
		case hclsyntax.TokenCParen:
			if depth == 0 {
				flush()
				return nil
			}
			depth--
		case hclsyntax.TokenGreaterThan, hclsyntax.TokenCBrack:
			if depth > 0 {
				depth--
			}
		case hclsyntax.TokenComma:
			if depth == 0 {
				if len(run) == 0 {
					return errorAt(tok, "Malformed trait list", "Expected a trait path before `,`.")
				}
				flush()
				continue
			}
		}
		run = append(run, tok)
	}
}

func errorAt(tok hclsyntax.Token, summary, detail string) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  tok.Range.Ptr(),
	}
}
