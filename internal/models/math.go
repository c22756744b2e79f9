package models

// MathKind is the coarse kind of a mathematical expression.
type MathKind string

const (
	KindEquation           MathKind = "equation"
	KindStatistical        MathKind = "statistical-expression"
	KindNotation           MathKind = "notation"
	KindVariableDefinition MathKind = "variable-definition"
)

// MathExpression is a detected piece of mathematical notation. Position is the byte offset of
// its first occurrence in the assembled text.
type MathExpression struct {
	Text     string   `json:"text"`
	Kind     MathKind `json:"kind"`
	Position int      `json:"position"`
	Context  string   `json:"context,omitempty"`
}
