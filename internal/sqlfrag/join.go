package sqlfrag

import (
	"fmt"
	"strings"
)

// JoinType is INNER or LEFT.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
)

func (t JoinType) String() string {
	if t == LeftJoin {
		return "LEFT"
	}
	return "INNER"
}

// JoinInformation is one join step. Key is the planner's dedupe key.
type JoinInformation struct {
	Key        string
	MainTable  string
	MainAlias  string
	MainColumn string
	SubTable   string
	SubAlias   string
	SubColumn  string
	Type       JoinType
}

// RenderJoin renders <INNER|LEFT> JOIN table alias ON main.col = alias.col.
func RenderJoin(j JoinInformation) string {
	return fmt.Sprintf("%s JOIN %s %s ON %s.%s = %s.%s",
		j.Type, j.SubTable, j.SubAlias, j.MainAlias, j.MainColumn, j.SubAlias, j.SubColumn)
}

// RenderJoins renders joins one per line.
func RenderJoins(joins []JoinInformation) string {
	lines := make([]string, len(joins))
	for i, j := range joins {
		lines[i] = RenderJoin(j)
	}
	return strings.Join(lines, "\n")
}

// CountPlaceholders counts `?` outside single-quoted literals.
func CountPlaceholders(sql string) int {
	n := 0
	inQuote := false
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'':
			inQuote = !inQuote
		case '?':
			if !inQuote {
				n++
			}
		}
	}
	return n
}
