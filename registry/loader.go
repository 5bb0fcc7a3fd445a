package registry

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var contentExts = map[string]bool{
	".md":       true,
	".markdown": true,
}

// Load walks root inside fsys and reads every markdown file. Directories and
// files whose name starts with "." or "_" are skipped.
func Load(ctx context.Context, fsys fs.FS, root string) ([]ContentFile, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	root = path.Clean(root)
	var files []ContentFile
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if p != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !contentExts[strings.ToLower(path.Ext(name))] {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("registry: read %s: %w", p, err)
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("registry: stat %s: %w", p, err)
		}
		rel := p
		if root != "." {
			rel = strings.TrimPrefix(p, root+"/")
		}
		files = append(files, ContentFile{Name: rel, Source: data, ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ReadBody loads the body of a route's content file, without its header.
func ReadBody(fsys fs.FS, root string, d Descriptor) ([]byte, error) {
	if d.Synthetic() {
		return nil, nil
	}
	data, err := fs.ReadFile(fsys, path.Join(root, d.Source))
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", d.Source, err)
	}
	_, body, err := ParseMetadata(d.Source, data)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// probeImage returns the pixel dimensions of a site-relative image. Absolute
// URLs and unreadable files yield zero dimensions.
func probeImage(fsys fs.FS, src string, logger *slog.Logger) (int, int) {
	if src == "" || !strings.HasPrefix(src, "/") {
		return 0, 0
	}
	name := strings.TrimPrefix(path.Clean(src), "/")
	f, err := fsys.Open(name)
	if err != nil {
		logger.Warn("header image not found", "image", src, "error", err)
		return 0, 0
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		logger.Warn("header image not decodable", "image", src, "error", err)
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
