package splitter

import (
	"os"

	"github.com/ahrenberg/split-nlogo-experiment/internal/experiment"
	"github.com/ahrenberg/split-nlogo-experiment/internal/runtable"
	"github.com/ahrenberg/split-nlogo-experiment/internal/script"
)

func writeSetupFile(path string, exp *experiment.Node) error {
	return writeFile(path, "write setup file", func(f *os.File) error {
		return experiment.WriteSetupFile(f, exp)
	})
}

func writeRunTable(path string, table *runtable.Table) error {
	return writeFile(path, "write run table", func(f *os.File) error {
		return table.WriteCSV(f)
	})
}

func writeScript(path string, tmpl *script.Template, values map[string]string) error {
	text, _ := tmpl.Render(values)
	return writeFile(path, "write script", func(f *os.File) error {
		_, err := f.WriteString(text)
		return err
	})
}

func writeFile(path, op string, fill func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: op, Path: path, Err: err}
	}
	if err := fill(f); err != nil {
		f.Close()
		return &IOError{Op: op, Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: op, Path: path, Err: err}
	}
	return nil
}
