package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parser deserializes a saved report back into structured data.
type Parser interface {
	Parse(data []byte) (*Report, error)
}

// JSONParser parses a JSON-encoded Report.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*Report, error) {
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse JSON report: %w", err)
	}
	return &report, nil
}

// YAMLParser parses a YAML-encoded Report.
type YAMLParser struct{}

func (p *YAMLParser) Parse(data []byte) (*Report, error) {
	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse YAML report: %w", err)
	}
	return &report, nil
}

// MarkdownParser parses a Markdown-rendered Report by extracting the
// embedded base64 JSON payload from the sentinel comments.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*Report, error) {
	content := string(data)

	if !strings.Contains(content, markdownSentinel) {
		return nil, fmt.Errorf("not a valid devtrack report: missing version sentinel")
	}

	start := strings.Index(content, markdownDataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid devtrack report: missing data payload")
	}
	start += len(markdownDataPrefix)
	end := strings.Index(content[start:], markdownDataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid devtrack report: malformed data payload")
	}
	encoded := content[start : start+end]

	jsonBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("not a valid devtrack report: corrupted base64 payload: %w", err)
	}

	var report Report
	if err := json.Unmarshal(jsonBytes, &report); err != nil {
		return nil, fmt.Errorf("not a valid devtrack report: failed to parse embedded JSON: %w", err)
	}
	return &report, nil
}

// ParserFor picks a parser from the file extension of path, falling back to
// JSON.
func ParserFor(path string) Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return &MarkdownParser{}
	case ".yaml", ".yml":
		return &YAMLParser{}
	default:
		return &JSONParser{}
	}
}

// Load reads and parses the report at path.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParserFor(path).Parse(data)
}
