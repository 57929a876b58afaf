package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-bigfive/internal/quiz"
)

func newScoreCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "score [file]",
		Short: "Score a completed questionnaire",
		Long: `Reads one response per question, either as a JSON array or as
whitespace separated integers, from file or stdin, and prints the code.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			answers, err := readAnswers(in)
			if err != nil {
				return err
			}
			catalog, err := quiz.LoadCatalogFile(a.cfg.CatalogFile)
			if err != nil {
				return err
			}
			res, err := quiz.NewScorer(catalog).Score(answers)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if verbose {
				for _, t := range quiz.Traits {
					fmt.Fprintf(out, "%-18s %.2f  %s\n", t, res.Averages[t], res.Levels[t])
				}
			}
			fmt.Fprintln(out, res.Code)
			return nil
		},
	}
	cmd.Flags().BoolVar(&verbose, "averages", false, "also print per-trait averages")
	return cmd
}

func readAnswers(r io.Reader) (quiz.Answers, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, "[") {
		var vs []int
		if err := json.Unmarshal([]byte(s), &vs); err != nil {
			return nil, fmt.Errorf("parse answers: %w", err)
		}
		return quiz.AnswersFromSlice(vs), nil
	}
	fields := strings.Fields(s)
	vs := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("answer %d: %w", i+1, err)
		}
		vs[i] = v
	}
	return quiz.AnswersFromSlice(vs), nil
}
