// Package css parses raw stylesheets scraped with a page into structured
// rules the style extractor can match against DOM nodes.
package css

import (
	"bytes"
	"maps"
	"strconv"
	"strings"
	"unicode"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into structured rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Items:    make([]StylesheetItem, 0),
		Warnings: make([]string, 0),
	}

	// Log parsing start with source identifier if provided
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	var currentSelectors []string

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			// End of input or error
			if parser.Err() != nil && parser.Err().Error() != "EOF" {
				p.log.Debug("CSS parse error", zap.Error(parser.Err()))
			}
			return sheet

		case css.BeginAtRuleGrammar:
			atRule := string(data)
			switch atRule {
			case "@media":
				// Parse @media query and preserve the block in the AST
				mq := p.parseMediaQueryFromTokens(parser.Values())
				rules := p.parseMediaBlockRules(parser, sheet)
				p.log.Debug("Parsed @media block", zap.String("query", mq.Raw), zap.Int("rules", len(rules)))
				sheet.Items = append(sheet.Items, StylesheetItem{
					MediaBlock: &MediaBlock{Query: mq, Rules: rules},
				})
			case "@font-face":
				ff := p.parseFontFace(parser)
				sheet.Items = append(sheet.Items, StylesheetItem{FontFace: &ff})
			default:
				// Skip other @-rules with blocks (@keyframes, @supports, ...).
				// Their presence still matters for custom-code detection which
				// scans the raw text separately.
				p.skipAtRuleBlock(parser)
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}
		case css.AtRuleGrammar:
			// Simple @-rule without block (e.g., @import)
			atRule := string(data)
			if atRule == "@import" {
				url := extractImportURL(parser.Values())
				if url != "" {
					sheet.Items = append(sheet.Items, StylesheetItem{Import: &url})
					p.log.Debug("Parsed @import", zap.String("url", url))
				}
			} else {
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.QualifiedRuleGrammar:
			currentSelectors = p.parseSelectors(data, parser.Values())
		}

		// Check for declarations after BeginRulesetGrammar
		if gt == css.BeginRulesetGrammar {
			currentSelectors = p.parseSelectors(data, parser.Values())
			props := p.parseDeclarations(parser)

			// Create rules for each selector
			for _, selStr := range currentSelectors {
				sel, usable := p.parseSelector(selStr, sheet)
				if !usable {
					continue
				}
				// Clone properties for each rule
				propsCopy := make(map[string]Value, len(props))
				maps.Copy(propsCopy, props)
				sheet.Items = append(sheet.Items, StylesheetItem{Rule: &Rule{
					Selector:   sel,
					Properties: propsCopy,
				}})
			}
			currentSelectors = nil
		}
	}
}

// ParseInline parses a style attribute value into properties.
func (p *Parser) ParseInline(style string) map[string]Value {
	input := parse.NewInput(bytes.NewReader([]byte(style)))
	parser := css.NewParser(input, true)

	props := make(map[string]Value)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return props
		case css.DeclarationGrammar:
			name := strings.ToLower(string(data))
			if values := parser.Values(); len(values) > 0 {
				props[name] = p.parsePropertyValue(values)
			}
		}
	}
}

// extractImportURL extracts the URL from @import tokens.
// Handles: @import "url"; @import url("url"); @import url(url);
func extractImportURL(tokens []css.Token) string {
	for _, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return unquote(string(t.Data))
		case css.URLToken:
			// url(something) - the token data is the full url(...) string
			s := string(t.Data)
			s = strings.TrimPrefix(s, "url(")
			s = strings.TrimSuffix(s, ")")
			return unquote(strings.TrimSpace(s))
		}
	}
	return ""
}

// parseSelectors extracts selector strings from token data.
func (p *Parser) parseSelectors(data []byte, values []css.Token) []string {
	// Build full selector string from data and values
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}

	selectorStr := sb.String()

	// Split by comma for grouped selectors
	var selectors []string
	for s := range strings.SplitSeq(selectorStr, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser) map[string]Value {
	props := make(map[string]Value)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return props

		case css.DeclarationGrammar:
			propName := strings.ToLower(string(data))
			values := parser.Values()
			if len(values) > 0 {
				props[propName] = p.parsePropertyValue(values)
			}

		case css.CustomPropertyGrammar:
			// CSS custom properties (--var) - skip for now
			continue
		}
	}
}

// parsePropertyValue converts CSS tokens to a Value.
func (p *Parser) parsePropertyValue(tokens []css.Token) Value {
	if len(tokens) == 0 {
		return Value{}
	}

	// Build raw value string
	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			// Add space between non-whitespace tokens
			rawParts = append(rawParts, " ")
		}
	}
	raw := strings.TrimSpace(strings.Join(rawParts, ""))

	val := Value{Raw: raw}

	// Handle single token cases
	if len(tokens) == 1 || (len(tokens) == 2 && tokens[1].TokenType == css.WhitespaceToken) {
		t := tokens[0]
		switch t.TokenType {
		case css.DimensionToken:
			val.Value, val.Unit = parseDimension(string(t.Data))
		case css.PercentageToken:
			val.Value, _ = strconv.ParseFloat(strings.TrimSuffix(string(t.Data), "%"), 64)
			val.Unit = "%"
		case css.NumberToken:
			val.Value, _ = strconv.ParseFloat(string(t.Data), 64)
		case css.IdentToken:
			val.Keyword = strings.ToLower(string(t.Data))
		case css.StringToken:
			val.Keyword = unquote(string(t.Data))
		case css.HashToken:
			// Color value
			val.Keyword = string(t.Data)
		}
		return val
	}

	// Function tokens (rgb(), url(), linear-gradient(), ...) and multi-value
	// properties - keep raw value
	val.Keyword = raw
	return val
}

// parseDimension extracts numeric value and unit from dimension token.
func parseDimension(s string) (float64, string) {
	// Find where number ends
	numEnd := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == '+' {
			numEnd = i + 1
		} else {
			break
		}
	}

	if numEnd == 0 {
		return 0, ""
	}

	num, _ := strconv.ParseFloat(s[:numEnd], 64)
	unit := strings.ToLower(s[numEnd:])
	return num, unit
}

// dynamicPseudoClasses are selector states that never apply to a static
// render; rules targeting only those are dropped.
var dynamicPseudoClasses = []string{
	":hover", ":focus", ":active", ":visited", ":focus-within", ":focus-visible", ":target",
}

// parseSelector parses a single selector string.
// The second return value is false when the rule should be skipped entirely.
func (p *Parser) parseSelector(selStr string, sheet *Stylesheet) (Selector, bool) {
	selStr = strings.TrimSpace(selStr)
	sel := Selector{Raw: selStr}

	// Rules reachable only through dynamic states do not contribute to the
	// effective static style.
	for _, pc := range dynamicPseudoClasses {
		if strings.Contains(selStr, pc) {
			sheet.Warnings = append(sheet.Warnings, "dynamic pseudo-class selector skipped: "+selStr)
			p.log.Debug("Skipping dynamic pseudo-class selector", zap.String("selector", selStr))
			return sel, false
		}
	}

	// Pseudo-elements style generated content we cannot snapshot.
	if strings.Contains(selStr, "::") {
		sheet.Warnings = append(sheet.Warnings, "pseudo-element selector skipped: "+selStr)
		return sel, false
	}

	// Anything with combinators, attribute matchers or functional
	// pseudo-classes is kept raw and matched through cascadia.
	if strings.ContainsAny(selStr, " \t>+~[(:*") {
		sel.Complex = true
		return sel, true
	}

	return p.parseCompound(selStr), true
}

// parseCompound parses a compound selector like "div#main.hero" into parts.
func (p *Parser) parseCompound(selStr string) Selector {
	sel := Selector{Raw: selStr}

	rest := selStr
	// Leading element name, if any
	i := 0
	for i < len(rest) && rest[i] != '.' && rest[i] != '#' {
		i++
	}
	sel.Element = strings.ToLower(rest[:i])
	rest = rest[i:]

	for rest != "" {
		marker := rest[0]
		rest = rest[1:]
		j := 0
		for j < len(rest) && rest[j] != '.' && rest[j] != '#' {
			j++
		}
		name := rest[:j]
		rest = rest[j:]
		switch marker {
		case '.':
			// first class wins for the simple representation, raw keeps the rest
			if sel.Class == "" {
				sel.Class = name
			} else {
				sel.Complex = true
			}
		case '#':
			sel.ID = name
		}
	}
	return sel
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// parseFontFace parses an @font-face block.
func (p *Parser) parseFontFace(parser *css.Parser) FontFace {
	ff := FontFace{}

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return ff

		case css.DeclarationGrammar:
			propName := string(data)
			values := parser.Values()
			if len(values) == 0 {
				continue
			}

			// Build value string
			var parts []string
			for _, v := range values {
				if v.TokenType != css.WhitespaceToken {
					parts = append(parts, string(v.Data))
				}
			}
			valStr := strings.Join(parts, " ")

			switch propName {
			case "font-family":
				ff.Family = unquote(valStr)
			case "src":
				ff.Src = valStr
			case "font-style":
				ff.Style = valStr
			case "font-weight":
				ff.Weight = valStr
			}
		}
	}
}

// parseMediaQueryFromTokens parses a media query prelude.
// Handles queries like "screen", "screen and (min-width: 768px)",
// "not print", "(max-width: 1024px)".
func (p *Parser) parseMediaQueryFromTokens(tokens []css.Token) MediaQuery {
	mq := MediaQuery{}

	// Build raw string for logging
	var rawParts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			rawParts = append(rawParts, string(t.Data))
		} else if len(rawParts) > 0 {
			rawParts = append(rawParts, " ")
		}
	}
	mq.Raw = strings.TrimSpace(strings.Join(rawParts, ""))

	var (
		negateNext  bool
		inParens    bool
		featureName string
	)
	for _, t := range tokens {
		switch t.TokenType {
		case css.LeftParenthesisToken:
			inParens = true
			featureName = ""
		case css.RightParenthesisToken:
			inParens = false
			negateNext = false
		case css.IdentToken:
			word := strings.ToLower(string(t.Data))
			switch {
			case word == "not":
				negateNext = true
			case word == "and" || word == "only" || word == "or":
				// combinators carry no value of their own
			case inParens:
				featureName = word
				mq.Features = append(mq.Features, MediaFeature{Name: word, Negated: negateNext})
			default:
				mq.Type = word
				mq.Negated = negateNext
				negateNext = false
			}
		case css.DimensionToken, css.NumberToken:
			if inParens && featureName != "" && len(mq.Features) > 0 {
				v, _ := parseDimension(string(t.Data))
				mq.Features[len(mq.Features)-1].Value = v
			}
		}
	}

	return mq
}

// parseMediaBlockRules parses rules inside an @media block and returns them
// for the caller to wrap in a MediaBlock.
func (p *Parser) parseMediaBlockRules(parser *css.Parser, sheet *Stylesheet) []Rule {
	var rules []Rule
	var currentSelectors []string

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndAtRuleGrammar:
			return rules

		case css.BeginRulesetGrammar:
			currentSelectors = p.parseSelectors(data, parser.Values())
			props := p.parseDeclarations(parser)

			for _, selStr := range currentSelectors {
				sel, usable := p.parseSelector(selStr, sheet)
				if !usable {
					continue
				}
				propsCopy := make(map[string]Value, len(props))
				maps.Copy(propsCopy, props)
				rules = append(rules, Rule{
					Selector:   sel,
					Properties: propsCopy,
				})
			}
			currentSelectors = nil
		}
	}
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
