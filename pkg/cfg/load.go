package cfg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInputParse is returned when an input file cannot be read or parsed
	// into a Module.
	ErrInputParse = errors.New("input parse failure")
	// ErrUnsupportedInput is returned for files whose extension no frontend
	// handles.
	ErrUnsupportedInput = errors.New("unsupported input")
	// ErrFunctionNotFound is returned by Module.Function.
	ErrFunctionNotFound = errors.New("function not found")
)

var extensions = map[string]Language{
	".ll":   LanguageLLVM,
	".go":   LanguageGo,
	".py":   LanguagePython,
	".json": LanguageDocument,
	".yaml": LanguageDocument,
	".yml":  LanguageDocument,
}

// DetectLanguage returns the frontend that handles path, based on its
// extension.
func DetectLanguage(path string) (Language, bool) {
	lang, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// SupportedExtensions returns the file extensions Load accepts.
func SupportedExtensions() []string {
	return []string{".ll", ".go", ".py", ".json", ".yaml", ".yml"}
}

// CheckSupported returns ErrUnsupportedInput, listing the supported
// extensions, when no frontend handles path.
func CheckSupported(path string) error {
	if _, ok := DetectLanguage(path); !ok {
		return unsupported(path)
	}
	return nil
}

func unsupported(name string) error {
	return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedInput, name, strings.Join(SupportedExtensions(), ", "))
}

// Load reads path and builds its Module with the frontend selected by the
// file extension.
func Load(ctx context.Context, path string) (*Module, error) {
	if err := CheckSupported(path); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrInputParse, path, err)
	}
	return LoadBytes(ctx, path, content)
}

// LoadBytes builds a Module from content. name selects the frontend by its
// extension and becomes the Module source.
func LoadBytes(ctx context.Context, name string, content []byte) (*Module, error) {
	lang, ok := DetectLanguage(name)
	if !ok {
		return nil, unsupported(name)
	}

	var (
		funcs []*CFGInfo
		err   error
	)
	switch lang {
	case LanguageLLVM:
		funcs, err = ParseLLVM(name, content)
	case LanguageGo:
		funcs, err = ParseGo(ctx, content)
	case LanguagePython:
		funcs, err = ParsePython(ctx, content)
	case LanguageDocument:
		if strings.EqualFold(filepath.Ext(name), ".json") {
			funcs, err = ParseJSON(content)
		} else {
			funcs, err = ParseYAML(content)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInputParse, name, err)
	}

	return &Module{
		Source:    name,
		Language:  lang,
		Functions: funcs,
	}, nil
}

// Function returns the function called name.
func (m *Module) Function(name string) (*CFGInfo, error) {
	for _, f := range m.Functions {
		if f != nil && f.FunctionName == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %s", ErrFunctionNotFound, name, m.Source)
}

// Names returns the function names in module order.
func (m *Module) Names() []string {
	names := make([]string, 0, len(m.Functions))
	for _, f := range m.Functions {
		if f != nil {
			names = append(names, f.FunctionName)
		}
	}
	return names
}
