package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/park285/cheese-scoresheet/internal/adapter/scoresheetpresenter"
	"github.com/park285/cheese-scoresheet/internal/msgcat"
	"github.com/park285/cheese-scoresheet/internal/notation"
	"github.com/park285/cheese-scoresheet/internal/obslog"
	"github.com/park285/cheese-scoresheet/internal/preview"
	svc "github.com/park285/cheese-scoresheet/internal/service/scoresheet"
	"github.com/park285/cheese-scoresheet/pkg/scoresheetdto"
)

type metaFlags struct {
	white, black, date, round, result string
}

func (m *metaFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.white, "white", "", "white player name")
	cmd.Flags().StringVar(&m.black, "black", "", "black player name")
	cmd.Flags().StringVar(&m.date, "date", "", "game date (YYYY.MM.DD)")
	cmd.Flags().StringVar(&m.round, "round", "", "round")
	cmd.Flags().StringVar(&m.result, "result", "", "game result (1-0, 0-1, 1/2-1/2, *)")
}

func (m *metaFlags) metadata() scoresheetdto.GameMetadata {
	return scoresheetdto.GameMetadata{White: m.white, Black: m.black, Date: m.date, Round: m.round}
}

func newReviewCommand() *cobra.Command {
	var (
		meta        metaFlags
		previewPath string
		verbose     bool
	)
	cmd := &cobra.Command{
		Use:   "review <page1> [page2]",
		Short: "Validate transcribed movetext, merging a second page when given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages := make([]string, 0, len(args))
			for _, path := range args {
				b, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				pages = append(pages, string(b))
			}
			catalog, err := msgcat.New(os.Getenv("MESSAGE_OVERRIDE_DIR"))
			if err != nil {
				return err
			}
			opts := svc.ReviewOptions{
				Metadata: meta.metadata(),
				Result:   meta.result,
				Catalog:  catalog,
				Logger:   obslog.Named("review"),
			}
			if previewPath != "" {
				opts.Renderer = preview.NewRenderer()
			}
			resp, err := svc.Review(cmd.Context(), pages, opts)
			if err != nil {
				return err
			}
			p := scoresheetpresenter.NewPresenter(cmd.OutOrStdout(), scoresheetpresenter.NewFormatter(verbose))
			return p.Process(resp, previewPath)
		},
	}
	meta.bind(cmd)
	cmd.Flags().StringVar(&previewPath, "preview", "", "write a PNG of the final position to this path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show validator messages")
	return cmd
}

func newNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <token>...",
		Short: "Print the canonical form of move tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make([]string, 0, len(args))
			for _, a := range args {
				out = append(out, fmt.Sprintf("%s\t%s", a, notation.Normalize(a)))
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(out, "\n"))
			return err
		},
	}
}
