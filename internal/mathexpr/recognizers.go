package mathexpr

import (
	"regexp"

	"github.com/hyperjump/docanalyzer/internal/models"
)

// recognizer finds candidate spans of one flavour of notation. When the pattern has a
// capture group, group 1 is the expression and the rest is context.
type recognizer struct {
	name     string
	kind     models.MathKind
	re       *regexp.Regexp
	classify bool
}

const (
	hs   = `[ \t]*`
	term = `(?:\d+(?:[.,]\d+)*[\p{Greek}A-Za-z]{0,2}|[\p{Greek}A-Za-z]{1,3}\d*)(?:[_^]\{?[\w+\-]{1,8}\}?|[′'⁰¹²³⁴⁵⁶⁷⁸⁹])*`
	atom = `[(\[]*` + term + `[)\]]*`
	op   = hs + `[+\-*/×÷·^]` + hs
	expr = atom + `(?:` + op + atom + `)*`
)

// recognizers run in this order; the order breaks ties between equally long overlapping matches.
var recognizers = []recognizer{
	{
		name: "numbered-equation",
		kind: models.KindEquation,
		re:   regexp.MustCompile(`(?m)^[ \t]*([^\n=]{1,120}=[^\n]{1,120}?)[ \t]*\(\d{1,3}[a-z]?\)[ \t]*$`),
	},
	{
		name:     "display-math",
		kind:     models.KindNotation,
		re:       regexp.MustCompile(`(?s)\$\$(.{1,400}?)\$\$`),
		classify: true,
	},
	{
		name: "p-value",
		kind: models.KindStatistical,
		re:   regexp.MustCompile(`\b[pP]` + hs + `(?:<|>|=|≤|≥)` + hs + `(?:0?\.\d+|[01](?:\.\d+)?)(?:[eE]-?\d+)?`),
	},
	{
		name: "test-statistic",
		kind: models.KindStatistical,
		re:   regexp.MustCompile(`(?:\b[tFzrR]|χ2|χ²|R²|\bR\^2)` + hs + `(?:\(` + hs + `\d+(?:` + hs + `,` + hs + `\d+)?` + hs + `\))?` + hs + `=` + hs + `-?\d*\.?\d+`),
	},
	{
		name: "plus-minus",
		kind: models.KindStatistical,
		re:   regexp.MustCompile(`[\p{Greek}\w.]+` + hs + `±` + hs + `[\p{Greek}\w.]+`),
	},
	{
		name: "sample-size",
		kind: models.KindStatistical,
		re:   regexp.MustCompile(`\b[nN]` + hs + `=` + hs + `\d+\b`),
	},
	{
		name: "confidence-interval",
		kind: models.KindStatistical,
		re:   regexp.MustCompile(`\b\d{2}%` + hs + `CI` + hs + `[:=]?` + hs + `[\[(][^\])\n]{1,40}[\])]`),
	},
	{
		name: "definition",
		kind: models.KindVariableDefinition,
		re:   regexp.MustCompile(`(?i)\b(?:let|where|define)[ \t]+([\p{Greek}A-Za-z]\w{0,2}(?:_\{?\w{1,8}\}?)?` + hs + `(?:=|:=|∈|≡)` + hs + expr + `)`),
	},
	{
		name: "assignment",
		kind: models.KindVariableDefinition,
		re:   regexp.MustCompile(`[\p{Greek}A-Za-z]\w{0,2}(?:_\{?\w{1,8}\}?)?` + hs + `:=` + hs + expr),
	},
	{
		name: "scientific-notation",
		kind: models.KindNotation,
		re:   regexp.MustCompile(`\d+(?:\.\d+)?` + hs + `[×x*·]` + hs + `10(?:\^[\-+−]?\d+|[⁻⁺]?[⁰¹²³⁴⁵⁶⁷⁸⁹]+)`),
	},
	{
		name:     "big-operator",
		kind:     models.KindNotation,
		re:       regexp.MustCompile(`[∑∫∏∮√∇][\p{Greek}\w ^=+\-*/().,_{}]{1,60}`),
		classify: true,
	},
	{
		name: "function",
		kind: models.KindNotation,
		re:   regexp.MustCompile(`\b(?:sin|cos|tan|log|ln|exp|sqrt|abs|max|min|lim)` + hs + `\([^()\n]{1,60}\)`),
	},
	{
		name: "derivative",
		kind: models.KindNotation,
		re:   regexp.MustCompile(`\bd[A-Za-z]/d[A-Za-z]\b|∂\p{L}/∂\p{L}`),
	},
	{
		name: "power",
		kind: models.KindNotation,
		re:   regexp.MustCompile(`[A-Za-z0-9]+\^\{?[A-Za-z0-9+\-]+\}?|[\p{L}\d][⁰¹²³⁴⁵⁶⁷⁸⁹⁺⁻]+`),
	},
	{
		name:     "greek-expression",
		kind:     models.KindNotation,
		re:       regexp.MustCompile(`\p{Greek}+` + hs + `[=+\-*/]` + hs + `[\p{Greek}\w+\-*/^().]+`),
		classify: true,
	},
	{
		name: "equation",
		kind: models.KindEquation,
		re:   regexp.MustCompile(expr + hs + `(?:=|≈|≡|≅)` + hs + expr),
	},
	{
		name: "inequality",
		kind: models.KindNotation,
		re:   regexp.MustCompile(expr + hs + `(?:<|>|≤|≥|≠|≪|≫)` + hs + expr),
	},
	{
		name: "matrix",
		kind: models.KindNotation,
		re:   regexp.MustCompile(`\[[A-Za-z0-9 ,+\-*/.]+;[A-Za-z0-9 ,;+\-*/.]+\]`),
	},
	{
		name: "fraction",
		kind: models.KindNotation,
		re:   regexp.MustCompile(`\b\d+/\d+\b`),
	},
}
