package registry

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(name, source string) ContentFile {
	return ContentFile{Name: name, Source: []byte(source)}
}

const newPost = `---
title: New Post
date: 2024-01-15
description: A fresh start
tags: [Go, web, go]
duration: 7
---
# Hello
`

func TestBuild_OneDescriptorPerPath(t *testing.T) {
	reg, err := Build([]ContentFile{
		file("posts/new-post.md", newPost),
		file("index.md", "---\ntitle: Home\ntype: page\n---\nwelcome"),
		file("posts/index.md", "---\ntitle: Posts\ntype: page\n---\n"),
		file("about.md", "---\ntitle: About\ncategory: page\nlayout: wide\n---\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, reg.Len())
	var paths []string
	for _, d := range reg.Routes() {
		paths = append(paths, d.Path)
	}
	assert.Equal(t, []string{"/", "/about", "/posts", "/posts/new-post"}, paths)

	d, ok := reg.Lookup("/posts/new-post/")
	require.True(t, ok)
	assert.Equal(t, "New Post", d.Metadata.Title)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), d.Metadata.Date)
	assert.Equal(t, []string{"go", "web"}, d.Metadata.Tags)
	assert.Equal(t, 7*time.Minute, d.Metadata.Duration)
	assert.Equal(t, TypePost, d.Metadata.Type)
	assert.Equal(t, "posts/new-post.md", d.Source)

	about, ok := reg.Lookup("/about")
	require.True(t, ok)
	assert.Equal(t, TypePage, about.Metadata.Type)
	assert.Equal(t, "wide", about.Metadata.Layout)
}

func TestBuild_DuplicateRouteIsDeterministic(t *testing.T) {
	files := []ContentFile{
		file("posts/b/index.md", "---\ntitle: B index\ntype: page\n---\n"),
		file("posts/b.md", "---\ntitle: B\ntype: page\n---\n"),
	}
	for i := 0; i < 3; i++ {
		_, err := Build(files)
		var dup *DuplicateRouteError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "/posts/b", dup.Path)
		assert.Equal(t, "posts/b.md", dup.First)
		assert.Equal(t, "posts/b/index.md", dup.Second)
		assert.True(t, errors.Is(err, ErrDuplicateRoute))

		files[0], files[1] = files[1], files[0]
	}
}

func TestBuild_SlugOverride(t *testing.T) {
	reg, err := Build([]ContentFile{
		file("posts/2024-01-15-draft-name.md", "---\ntitle: Renamed\ntype: page\nslug: Final Name\n---\n"),
	})
	require.NoError(t, err)
	assert.True(t, reg.Has("/posts/final-name"))
}

func TestBuild_MalformedFrontmatter(t *testing.T) {
	tests := []struct {
		name   string
		source string
		field  string
	}{
		{"missing header", "# just a body", ""},
		{"missing title", "---\ndate: 2024-01-01\n---\n", "title"},
		{"post without date", "---\ntitle: X\n---\n", "date"},
		{"bad date", "---\ntitle: X\ndate: yesterday\n---\n", "date"},
		{"bad duration", "---\ntitle: X\ntype: page\nduration: soon\n---\n", "duration"},
		{"bad image scheme", "---\ntitle: X\ntype: page\nimage: ftp://example.com/a.png\n---\n", "image"},
		{"relative image", "---\ntitle: X\ntype: page\nimage: images/a.png\n---\n", "image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build([]ContentFile{file("posts/x.md", tt.source)})
			var malformed *MalformedFrontmatterError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, "posts/x.md", malformed.File)
			assert.Equal(t, tt.field, malformed.Field)
			assert.ErrorIs(t, err, ErrMalformedFrontmatter)
		})
	}
}

func TestBuild_PagesMayOmitDate(t *testing.T) {
	reg, err := Build([]ContentFile{file("about.md", "---\ntitle: About\ntype: page\n---\n")})
	require.NoError(t, err)
	d, _ := reg.Lookup("/about")
	assert.False(t, d.Metadata.HasDate())
}

func TestBuild_TOMLHeader(t *testing.T) {
	reg, err := Build([]ContentFile{file("notes/toml.md", "+++\ntitle = \"Toml\"\ndate = \"2023-05-02\"\nduration = \"90s\"\n+++\nbody")})
	require.NoError(t, err)
	d, ok := reg.Lookup("/notes/toml")
	require.True(t, ok)
	assert.Equal(t, 90*time.Second, d.Metadata.Duration)
	assert.Equal(t, 2023, d.Metadata.Date.Year())
}

func TestBuild_DevelopmentFiltering(t *testing.T) {
	files := []ContentFile{file("wip.md", "---\ntitle: WIP\ntype: page\ndevelopment: true\n---\n")}

	reg, err := Build(files)
	require.NoError(t, err)
	assert.False(t, reg.Has("/wip"))

	reg, err = Build(files, WithDevelopment(true))
	require.NoError(t, err)
	assert.True(t, reg.Has("/wip"))
}

func TestBuild_Aliases(t *testing.T) {
	reg, err := Build([]ContentFile{
		file("posts/new-post.md", "---\ntitle: New\ndate: 2024-01-01\naliases: [/old-post/, /2019/new]\n---\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, []Alias{
		{From: "/old-post", To: "/posts/new-post", File: "posts/new-post.md"},
		{From: "/2019/new", To: "/posts/new-post", File: "posts/new-post.md"},
	}, reg.Aliases())

	_, err = Build([]ContentFile{
		file("old-post.md", "---\ntitle: Old\ntype: page\n---\n"),
		file("posts/new-post.md", "---\ntitle: New\ndate: 2024-01-01\naliases: [/old-post]\n---\n"),
	})
	var dup *DuplicateRouteError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "/old-post", dup.Path)
}

func TestBuild_NotFoundFallback(t *testing.T) {
	reg, err := Build(nil)
	require.NoError(t, err)
	nf := reg.NotFound()
	assert.Equal(t, DefaultNotFoundPath, nf.Path)
	assert.True(t, nf.Synthetic())

	reg, err = Build([]ContentFile{file("missing.md", "---\ntitle: Lost?\ntype: page\n---\n")}, WithNotFoundPath("/missing/"))
	require.NoError(t, err)
	assert.Equal(t, "Lost?", reg.NotFound().Metadata.Title)
}

func TestRegistry_LookupReturnsCopies(t *testing.T) {
	reg, err := Build([]ContentFile{file("posts/new-post.md", newPost)})
	require.NoError(t, err)

	d, _ := reg.Lookup("/posts/new-post")
	d.Metadata.Tags[0] = "mutated"

	again, _ := reg.Lookup("/posts/new-post")
	assert.Equal(t, "go", again.Metadata.Tags[0])
}

func TestRegistry_DatedAndTags(t *testing.T) {
	reg, err := Build([]ContentFile{
		file("a.md", "---\ntitle: A\ndate: 2024-01-01\ntags: [go]\n---\n"),
		file("b.md", "---\ntitle: B\ndate: 2024-03-01\n---\n"),
		file("c.md", "---\ntitle: C\ntype: page\ntags: [go]\n---\n"),
	})
	require.NoError(t, err)

	dated := reg.Dated()
	require.Len(t, dated, 2)
	assert.Equal(t, "/b", dated[0].Path)
	assert.Len(t, reg.WithTag("go"), 2)
}

func TestLoadReadsImageDimensions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 12, 8))))

	content := fstest.MapFS{
		"content/posts/new-post.md": {Data: []byte("---\ntitle: New\ndate: 2024-01-01\nimage: /img/cover.png\n---\nbody")},
		"content/_drafts/x.md":      {Data: []byte("not even frontmatter")},
		"content/.hidden.md":        {Data: []byte("nope")},
		"content/notes.txt":         {Data: []byte("ignored")},
	}
	public := fstest.MapFS{"img/cover.png": {Data: buf.Bytes()}}

	files, err := Load(context.Background(), content, "content")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "posts/new-post.md", files[0].Name)

	reg, err := Build(files, WithImageFS(public))
	require.NoError(t, err)
	d, _ := reg.Lookup("/posts/new-post")
	assert.Equal(t, 12, d.Metadata.ImageWidth)
	assert.Equal(t, 8, d.Metadata.ImageHeight)

	body, err := ReadBody(content, "content", d)
	require.NoError(t, err)
	assert.Equal(t, "body", strings.TrimSpace(string(body)))
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, fstest.MapFS{}, ".")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "/", CleanPath(""))
	assert.Equal(t, "/a/b", CleanPath("a/b/?q=1"))
	p, frag := SplitFragment("/posts/x/#intro")
	assert.Equal(t, "/posts/x", p)
	assert.Equal(t, "intro", frag)
	assert.Equal(t, "hello-world", Slugify("  Hello, World! "))
}
