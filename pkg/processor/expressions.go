package processor

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/jmespath/go-jmespath"
)

// Evaluator compiles and caches JMESPath expressions
type Evaluator struct {
	cache map[string]*jmespath.JMESPath
	mu    sync.RWMutex
}

func NewEvaluator() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*jmespath.JMESPath),
	}
}

// Compile validates an expression and caches it
func (e *Evaluator) Compile(expression string) error {
	_, err := e.getOrCompile(expression)
	return err
}

// Evaluate evaluates a JMESPath expression against data
func (e *Evaluator) Evaluate(expression string, data any) (any, error) {
	compiled, err := e.getOrCompile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", expression, err)
	}

	result, err := compiled.Search(data)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression %q: %w", expression, err)
	}

	return result, nil
}

// EvaluateString evaluates an expression and renders scalars as strings.
// A missing value is the empty string.
func (e *Evaluator) EvaluateString(expression string, data any) (string, error) {
	result, err := e.Evaluate(expression, data)
	if err != nil {
		return "", err
	}
	s, ok := scalarString(result)
	if !ok {
		return "", fmt.Errorf("expression %q did not select a scalar", expression)
	}
	return s, nil
}

// EvaluateRecord evaluates an expression that selects an object of field
// values. Values may be scalars or {"value": ...} objects.
func (e *Evaluator) EvaluateRecord(expression string, data any) (map[string]string, error) {
	result, err := e.Evaluate(expression, data)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	obj, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expression %q did not select an object", expression)
	}

	record := make(map[string]string, len(obj))
	for field, value := range obj {
		if wrapped, ok := value.(map[string]any); ok {
			value = wrapped["value"]
		}
		s, ok := scalarString(value)
		if !ok {
			return nil, fmt.Errorf("field %q is not a scalar", field)
		}
		record[field] = s
	}
	return record, nil
}

func scalarString(v any) (string, bool) {
	switch value := v.(type) {
	case nil:
		return "", true
	case string:
		return value, true
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(value), true
	default:
		return "", false
	}
}

func (e *Evaluator) getOrCompile(expression string) (*jmespath.JMESPath, error) {
	e.mu.RLock()
	compiled, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiled, err := jmespath.Compile(expression)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = compiled
	e.mu.Unlock()

	return compiled, nil
}
