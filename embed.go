package pubnav

import "embed"

// EmbeddedAssets contains static assets shipped with the framework:
// pubnav.js, the client side of the navigate API.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
