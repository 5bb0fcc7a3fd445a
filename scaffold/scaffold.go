// Package scaffold generates a starter content site for the pubnav CLI.
package scaffold

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

// Data holds the template variables passed to every scaffold template.
type Data struct {
	ProjectName string
	SiteName    string
	Date        string
}

// NewData derives template data from a project name such as "my-site" or
// "example.com/me/my-site".
func NewData(name string, now time.Time) Data {
	dirName := name
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		dirName = name[idx+1:]
	}
	return Data{
		ProjectName: dirName,
		SiteName:    toTitle(dirName),
		Date:        now.Format("2006-01-02"),
	}
}

// Generate writes the starter site into dir, which must not exist. Each
// created file is reported to out.
func Generate(dir string, data Data, out io.Writer) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}

	root := "templates"
	return fs.WalkDir(Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := strings.TrimSuffix(filepath.Join(dir, relPath), ".tmpl")

		// Rename dotenv to .env.example.
		if filepath.Base(outPath) == "dotenv" {
			outPath = filepath.Join(filepath.Dir(outPath), ".env.example")
		}

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		content, err := Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()

		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}

		fmt.Fprintf(out, "  created %s\n", outPath)
		return nil
	})
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-site" -> "My Site", "mysite" -> "Mysite"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
