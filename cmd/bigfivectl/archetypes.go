package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-bigfive/internal/archetype"
	"github.com/mind-engage/mindengage-bigfive/internal/quiz"
	"github.com/mind-engage/mindengage-bigfive/internal/storage"
)

func newArchetypesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archetypes",
		Short: "Inspect the archetype catalog",
	}
	var strict bool
	check := &cobra.Command{
		Use:   "check",
		Short: "Report which of the codes have no archetype",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := storage.NewFSStore(a.cfg.BlobBasePath)
			if err != nil {
				return err
			}
			cat, err := archetype.Load(bs, a.log)
			if err != nil {
				return err
			}
			missing := cat.Missing()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loaded %d archetypes\n", cat.Len())
			fmt.Fprintf(out, "Missing %d of %d codes\n", len(missing), len(quiz.AllCodes()))
			for _, c := range missing {
				fmt.Fprintln(out, c)
			}
			if strict && len(missing) > 0 {
				return fmt.Errorf("%d codes have no archetype", len(missing))
			}
			return nil
		},
	}
	check.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any code is missing")

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Copy a text export or name overrides into the blob store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := importKey(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			bs, err := storage.NewFSStore(a.cfg.BlobBasePath)
			if err != nil {
				return err
			}
			stored, err := bs.Put(key, f)
			if err != nil {
				return err
			}
			// Parse what was stored so a bad export fails here, not at startup.
			cat, err := archetype.Load(bs, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%d archetypes)\n", stored, cat.Len())
			return nil
		},
	}
	cmd.AddCommand(check, importCmd)
	return cmd
}

func importKey(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return archetype.TextKey, nil
	case ".yaml", ".yml":
		return "archetypes.yaml", nil
	case ".json":
		return "archetypes.json", nil
	}
	return "", fmt.Errorf("unsupported archetype file %q: want .txt, .yaml or .json", path)
}
