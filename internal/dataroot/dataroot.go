// Package dataroot lays out the directory tree a deployment keeps its
// surveys, charts, documents and application state in.
//
//	SurveyKN-dataroot/
//	|-- Surveys        raw and bound survey CSVs
//	|-- Visuals        <run>/<area>/<chart>.svg
//	|-- Templates      <run>/<area>.md plus the config and doctree used
//	|-- AppData        question-store.yml, archive.db
//	|-- Configuration  config.yml, doctree.yml
package dataroot

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/roach88/surveykn/internal/questions"
)

// Name is the directory Init creates.
const Name = "SurveyKN-dataroot"

const (
	DirSurveys       = "Surveys"
	DirVisuals       = "Visuals"
	DirTemplates     = "Templates"
	DirAppData       = "AppData"
	DirConfiguration = "Configuration"

	QuestionStoreFile = "question-store.yml"
	ArchiveFile       = "archive.db"
	ConfigFile        = "config.yml"
	DoctreeFile       = "doctree.yml"
)

var directories = []string{DirSurveys, DirVisuals, DirTemplates, DirAppData, DirConfiguration}

// ErrNotDataRoot is returned by Open for a directory missing the layout.
var ErrNotDataRoot = errors.New("not a data root")

//go:embed sample/config.yml sample/doctree.yml
var samples embed.FS

// Root is an opened data root.
type Root struct {
	Path string
}

// Init creates a fresh data root named Name inside parent: the directory
// tree, an empty question store and sample configuration. It refuses to
// touch an existing data root.
func Init(parent string) (Root, error) {
	r := Root{Path: filepath.Join(parent, Name)}
	if err := os.Mkdir(r.Path, 0o755); err != nil {
		return Root{}, fmt.Errorf("create data root: %w", err)
	}
	for _, dir := range directories {
		if err := os.Mkdir(filepath.Join(r.Path, dir), 0o755); err != nil {
			return Root{}, fmt.Errorf("create data root: %w", err)
		}
	}
	if err := questions.New().Save(r.QuestionStore()); err != nil {
		return Root{}, err
	}
	for name, dst := range map[string]string{ConfigFile: r.Config(), DoctreeFile: r.Doctree()} {
		data, err := samples.ReadFile(path.Join("sample", name))
		if err != nil {
			return Root{}, err
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return Root{}, fmt.Errorf("write %s: %w", name, err)
		}
	}
	return r, nil
}

// Open checks that dir has the data root layout.
func Open(dir string) (Root, error) {
	for _, sub := range directories {
		info, err := os.Stat(filepath.Join(dir, sub))
		if err != nil || !info.IsDir() {
			return Root{}, fmt.Errorf("%w: %s is missing %s/", ErrNotDataRoot, dir, sub)
		}
	}
	return Root{Path: dir}, nil
}

func (r Root) join(elem ...string) string {
	return filepath.Join(append([]string{r.Path}, elem...)...)
}

func (r Root) QuestionStore() string { return r.join(DirAppData, QuestionStoreFile) }
func (r Root) Archive() string       { return r.join(DirAppData, ArchiveFile) }
func (r Root) Config() string        { return r.join(DirConfiguration, ConfigFile) }
func (r Root) Doctree() string       { return r.join(DirConfiguration, DoctreeFile) }
func (r Root) Surveys() string       { return r.join(DirSurveys) }

// Survey is the bound survey of a run, also the CSV fallback for snapshots.
func (r Root) Survey(run string) string { return r.join(DirSurveys, run+".csv") }

// OriginalSurvey is the untouched copy of a run's input CSV.
func (r Root) OriginalSurvey(run string) string { return r.join(DirSurveys, run+"-original.csv") }

// Visuals is the chart directory of one area of a run.
func (r Root) Visuals(run, area string) string { return r.join(DirVisuals, run, area) }

// Templates is the document directory of a run.
func (r Root) Templates(run string) string { return r.join(DirTemplates, run) }

// Document is the report of one area of a run.
func (r Root) Document(run, area string) string { return r.join(DirTemplates, run, area+".md") }

// ImageRef returns how a document of run references a chart: a relative,
// slash-separated path from Templates/<run>/ to Visuals/<run>/<area>/.
func ImageRef(run string) func(area, name string) string {
	return func(area, name string) string {
		return path.Join("..", "..", DirVisuals, run, area, name)
	}
}

// CopyFile copies src to dst, creating dst's directory.
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return WriteFile(dst, data)
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
