package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/cheese-scoresheet/internal/adapter/scoresheetpresenter"
	"github.com/park285/cheese-scoresheet/internal/config"
	"github.com/park285/cheese-scoresheet/internal/obslog"
	"github.com/park285/cheese-scoresheet/internal/scoresheetbuilder"
	"github.com/park285/cheese-scoresheet/pkg/scoresheetdto"
)

// withDeps loads config from the environment and wires the service for one command.
func withDeps(ctx context.Context, fn func(*scoresheetbuilder.Deps) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	deps, err := scoresheetbuilder.New(ctx, cfg, obslog.L())
	if err != nil {
		return fmt.Errorf("init error: %w", err)
	}
	defer func() { _ = deps.Close() }()
	return fn(deps)
}

func readImage(path string) (scoresheetdto.PageImage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return scoresheetdto.PageImage{}, err
	}
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return scoresheetdto.PageImage{Data: b, ContentType: ct}, nil
}

func requestMeta(cmd *cobra.Command, requestID string) scoresheetdto.RequestMeta {
	owner, _ := cmd.Flags().GetString("owner")
	return scoresheetdto.RequestMeta{RequestID: requestID, Owner: owner}
}

// userError swaps service errors for their catalog message.
func userError(deps *scoresheetbuilder.Deps, err error) error {
	if err == nil {
		return nil
	}
	obslog.L().Debug("command failed", zap.Error(err))
	return errors.New(deps.Service.UserMessage(err))
}

func newProcessCommand() *cobra.Command {
	var (
		meta        metaFlags
		requestID   string
		previewPath string
		verbose     bool
	)
	cmd := &cobra.Command{
		Use:   "process <image1> [image2]",
		Short: "Read scoresheet photos through the OCR service and store the game",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			images := make([]scoresheetdto.PageImage, 0, len(args))
			for _, path := range args {
				img, err := readImage(path)
				if err != nil {
					return err
				}
				images = append(images, img)
			}
			return withDeps(cmd.Context(), func(deps *scoresheetbuilder.Deps) error {
				var (
					resp *scoresheetdto.ProcessResponse
					err  error
				)
				rm := requestMeta(cmd, requestID)
				if len(images) == 2 {
					resp, err = deps.Service.ProcessDualUpload(cmd.Context(), scoresheetdto.DualUploadRequest{
						Meta: rm, Page1: images[0], Page2: images[1], Metadata: meta.metadata(), Result: meta.result,
					})
				} else {
					resp, err = deps.Service.ProcessUpload(cmd.Context(), scoresheetdto.UploadRequest{
						Meta: rm, Page: images[0], Metadata: meta.metadata(), Result: meta.result,
					})
				}
				if err != nil {
					return userError(deps, err)
				}
				p := scoresheetpresenter.NewPresenter(cmd.OutOrStdout(), scoresheetpresenter.NewFormatter(verbose))
				return p.Process(resp, previewPath)
			})
		},
	}
	meta.bind(cmd)
	cmd.Flags().StringVar(&requestID, "request-id", "", "idempotency key; reused as the continuation id")
	cmd.Flags().StringVar(&previewPath, "preview", "", "write the preview PNG to this path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show validator messages")
	return cmd
}

func newContinueCommand() *cobra.Command {
	var (
		result      string
		previewPath string
		verbose     bool
	)
	cmd := &cobra.Command{
		Use:   "continue <continuation-id> <image>",
		Short: "Merge the next page onto a pending scoresheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := readImage(args[1])
			if err != nil {
				return err
			}
			return withDeps(cmd.Context(), func(deps *scoresheetbuilder.Deps) error {
				resp, err := deps.Service.ProcessContinuation(cmd.Context(), scoresheetdto.ContinuationRequest{
					Meta:       requestMeta(cmd, ""),
					UploadUUID: args[0],
					Page:       img,
					Result:     result,
				})
				if err != nil {
					return userError(deps, err)
				}
				p := scoresheetpresenter.NewPresenter(cmd.OutOrStdout(), scoresheetpresenter.NewFormatter(verbose))
				return p.Process(resp, previewPath)
			})
		},
	}
	cmd.Flags().StringVar(&result, "result", "", "game result")
	cmd.Flags().StringVar(&previewPath, "preview", "", "write the preview PNG to this path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show validator messages")
	return cmd
}

func newHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently processed scoresheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(deps *scoresheetbuilder.Deps) error {
				resp, err := deps.Service.History(cmd.Context(), scoresheetdto.HistoryRequest{Meta: requestMeta(cmd, ""), Limit: limit})
				if err != nil {
					return userError(deps, err)
				}
				return scoresheetpresenter.NewPresenter(cmd.OutOrStdout(), nil).History(resp)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of games to list")
	return cmd
}

func newPendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List continuation ids still waiting for a next page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(deps *scoresheetbuilder.Deps) error {
				ids, err := deps.Service.PendingUploads(cmd.Context(), requestMeta(cmd, ""))
				if err != nil {
					return userError(deps, err)
				}
				p := scoresheetpresenter.NewPresenter(cmd.OutOrStdout(), nil)
				if len(ids) == 0 {
					return p.Text("No pending pages.")
				}
				return p.Text(strings.Join(ids, "\n"))
			})
		},
	}
}
