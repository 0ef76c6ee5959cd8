package main

import (
	"fmt"
	"strings"

	"casebook/internal/manifest"
	"casebook/internal/story"
)

// builtinCatalog is the decorator vocabulary available to manifests. Hosts
// embedding casebook as a library supply their own.
func builtinCatalog() manifest.Catalog {
	return manifest.Catalog{
		"uppercase": func(next story.RenderFn) story.RenderFn {
			return func(ctx *story.Context) any {
				return strings.ToUpper(fmt.Sprint(next(ctx)))
			}
		},
		"border": func(next story.RenderFn) story.RenderFn {
			return func(ctx *story.Context) any {
				return "[ " + fmt.Sprint(next(ctx)) + " ]"
			}
		},
		"banner": func(next story.RenderFn) story.RenderFn {
			return func(ctx *story.Context) any {
				return fmt.Sprintf("=== %s/%s ===\n%v", ctx.Kind, ctx.Name, next(ctx))
			}
		},
	}
}
