// Package mcptools exposes the capability engine as MCP tools.
//
// Each tool follows the same shape:
//   - a struct holding its dependencies, injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() processes the request and returns a result
//
// Bad input is reported as a tool error result, never as a Go error, so the
// calling client sees the message.
package mcptools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harrison/capstudy/internal/models"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// optionalFloat returns a pointer to a numeric argument, or nil when absent.
// Numeric strings are accepted too, with either decimal separator.
func optionalFloat(req mcp.CallToolRequest, key string) (*float64, error) {
	switch v := req.GetArguments()[key].(type) {
	case nil:
		return nil, nil
	case float64:
		return models.Float(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		f, err := models.ParseDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("'%s' must be a number, got %q", key, v)
		}
		return models.Float(f), nil
	default:
		return nil, fmt.Errorf("'%s' must be a number", key)
	}
}

// measurementsArg reads measurement cells from either a JSON array (null
// entries are empty cells) or a string of values separated by spaces or
// semicolons.
func measurementsArg(req mcp.CallToolRequest, key string) ([]*float64, error) {
	switch v := req.GetArguments()[key].(type) {
	case nil:
		return nil, nil
	case []any:
		cells := make([]*float64, 0, len(v))
		for i, item := range v {
			switch n := item.(type) {
			case nil:
				cells = append(cells, nil)
			case float64:
				cells = append(cells, models.Float(n))
			case string:
				f, err := models.ParseDecimal(n)
				if err != nil {
					return nil, fmt.Errorf("'%s'[%d]: %q is not a number", key, i, n)
				}
				cells = append(cells, models.Float(f))
			default:
				return nil, fmt.Errorf("'%s'[%d] must be a number", key, i)
			}
		}
		return cells, nil
	case string:
		fields := strings.FieldsFunc(v, func(r rune) bool {
			return r == ';' || r == ' ' || r == '\t' || r == '\n'
		})
		cells := make([]*float64, 0, len(fields))
		for _, field := range fields {
			if field == "-" || strings.EqualFold(field, "null") {
				cells = append(cells, nil)
				continue
			}
			f, err := models.ParseDecimal(field)
			if err != nil {
				return nil, fmt.Errorf("'%s': %q is not a number", key, field)
			}
			cells = append(cells, models.Float(f))
		}
		return cells, nil
	default:
		return nil, fmt.Errorf("'%s' must be an array of numbers or a string", key)
	}
}

// toleranceArg reads a raw tolerance: a number, an array of one or two
// numbers, or text such as "+0.2/-0.1".
func toleranceArg(req mcp.CallToolRequest, key string) (models.RawTolerance, error) {
	switch v := req.GetArguments()[key].(type) {
	case nil:
		return models.RawTolerance{}, nil
	case float64:
		return models.ScalarTolerance(v), nil
	case string:
		return models.TextTolerance(v), nil
	case []any:
		values := make([]float64, 0, len(v))
		for i, item := range v {
			n, ok := item.(float64)
			if !ok {
				return models.RawTolerance{}, fmt.Errorf("'%s'[%d] must be a number", key, i)
			}
			values = append(values, n)
		}
		return models.ListTolerance(values...), nil
	default:
		return models.RawTolerance{}, fmt.Errorf("'%s' must be a number, an array or text", key)
	}
}

func num(v float64) string {
	return fmt.Sprintf("%.4g", v)
}
