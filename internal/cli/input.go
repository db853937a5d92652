package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/labsearch/internal/criteria"
)

// readCriteria loads and decodes a criteria file; "-" reads stdin. Syntax
// errors are reported as *criteria.DecodeError at the file level.
func readCriteria(cmd *cobra.Command, path string) (criteria.Node, criteria.Criterion, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return criteria.Node{}, nil, fmt.Errorf("read criteria: %w", err)
	}

	var node criteria.Node
	if isJSON(path, data) {
		node, err = criteria.ParseJSON(data)
	} else {
		node, err = criteria.ParseYAML(data)
	}
	if err != nil {
		return criteria.Node{}, nil, &criteria.DecodeError{Path: path, Message: err.Error()}
	}

	crit, err := criteria.Decode(node)
	if err != nil {
		return criteria.Node{}, nil, err
	}
	return node, crit, nil
}

func isJSON(path string, data []byte) bool {
	if path != "-" {
		return strings.EqualFold(filepath.Ext(path), ".json")
	}
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("{"))
}

// formatParam renders a bound parameter for text output.
func formatParam(p any) string {
	switch v := p.(type) {
	case time.Time:
		return v.Format(time.RFC3339) + " (time)"
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v (%T)", v, v)
	}
}
