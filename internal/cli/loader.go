package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/surveykn/internal/compiler"
	"github.com/roach88/surveykn/internal/dataroot"
	"github.com/roach88/surveykn/internal/ir"
	"github.com/roach88/surveykn/internal/questions"
)

// LoadError represents an error that occurred while loading data root files.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	File    string
	Line    int
	Err     error
}

func (e *LoadError) Error() string {
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Workspace is everything a command may read from a data root.
type Workspace struct {
	Root        dataroot.Root
	ConfigPath  string
	DoctreePath string
	Config      *compiler.Config
	Outline     *ir.Outline
	Store       *questions.Store
}

// openRoot opens the data root named by --root.
func openRoot(opts *RootOptions) (dataroot.Root, error) {
	root, err := dataroot.Open(opts.Root)
	if err != nil {
		code := ErrCodeNotDataRoot
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return dataroot.Root{}, &LoadError{Code: code, Message: err.Error(), Err: err}
	}
	return root, nil
}

// loadWorkspace opens the data root and loads the configuration, doctree and
// question store.
func loadWorkspace(opts *RootOptions) (*Workspace, error) {
	root, err := openRoot(opts)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{
		Root:        root,
		ConfigPath:  opts.Config,
		DoctreePath: opts.Doctree,
	}
	if ws.ConfigPath == "" {
		ws.ConfigPath = root.Config()
	}
	if ws.DoctreePath == "" {
		ws.DoctreePath = root.Doctree()
	}

	if ws.Config, err = compiler.LoadConfig(ws.ConfigPath); err != nil {
		return nil, convertCompileError(err, "config")
	}
	if ws.Outline, err = compiler.LoadOutline(ws.DoctreePath); err != nil {
		return nil, convertCompileError(err, "doctree")
	}
	if ws.Store, err = loadStore(root); err != nil {
		return nil, err
	}
	return ws, nil
}

// loadStore reads the data root's question store.
func loadStore(root dataroot.Root) (*questions.Store, error) {
	s, err := questions.Load(root.QuestionStore())
	if err != nil {
		code := ErrCodeLoadFailed
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		return nil, &LoadError{Code: code, Message: err.Error(), File: root.QuestionStore(), Err: err}
	}
	return s, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var verrs compiler.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &LoadError{Code: verrs[0].Code, Message: fmt.Sprintf("%s: %v", context, verrs), Err: err}
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
			File:    compileErr.File,
			Line:    compileErr.Line,
			Err:     err,
		}
	}
	code := ErrCodeLoadFailed
	if errors.Is(err, os.ErrNotExist) {
		code = ErrCodeNotFound
	}
	return &LoadError{
		Code:    code,
		Message: fmt.Sprintf("%s: %v", context, err),
		Err:     err,
	}
}
