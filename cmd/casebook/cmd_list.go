package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"casebook/internal/config"
	"casebook/internal/manifest"
	"casebook/internal/registry"
	"casebook/internal/reload"
	"casebook/internal/store"

	"github.com/spf13/cobra"
)

var listJSON bool

// listCmd loads every manifest in a directory once and prints the composed
// snapshot.
var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "Load story manifests and print the composed registry snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the snapshot as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	dir := cfg.Watch.Dir
	if len(args) > 0 {
		dir = args[0]
	}

	st := store.New(logger)
	reg := registry.New(st, cfg.RegistryOptions(), logger)
	loader := manifest.NewLoader(builtinCatalog(), logger)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading manifest dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		mod := reload.NewModuleContext(path, nil)
		if err := loader.LoadAndRegister(reg, path, mod); err != nil {
			return err
		}
	}

	sets, err := st.ByKind()
	if err != nil {
		return err
	}

	if listJSON {
		return printJSON(sets)
	}
	for _, set := range sets {
		fmt.Printf("%s\n", set.Kind)
		for _, e := range set.Stories {
			fmt.Printf("  %-30s %v\n", e.ID, e.Render(e.Context()))
		}
	}
	fmt.Printf("\n%d stories, revision %d\n", st.Count(), st.Revision())
	return nil
}

func printJSON(sets []store.KindSet) error {
	type storyOut struct {
		ID         string         `json:"id"`
		Name       string         `json:"name"`
		Parameters map[string]any `json:"parameters,omitempty"`
		Rendered   any            `json:"rendered"`
	}
	out := make(map[string][]storyOut, len(sets))
	for _, set := range sets {
		for _, e := range set.Stories {
			out[set.Kind] = append(out[set.Kind], storyOut{
				ID:         e.ID,
				Name:       e.Name,
				Parameters: e.Parameters,
				Rendered:   e.Render(e.Context()),
			})
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
