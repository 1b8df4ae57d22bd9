package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leeforge/multicaptcha/cache"
	"github.com/leeforge/multicaptcha/captcha"
	"github.com/leeforge/multicaptcha/concurrency"
	"github.com/leeforge/multicaptcha/glyph"
)

type renderOpts struct {
	output  string // 文件路径，count > 1 时为目录
	typ     string // code 或 math
	count   int
	workers int
	seed    uint64 // 0 表示按时间取种子
	font    string
}

func newRenderCmd(a *app) *cobra.Command {
	opts := renderOpts{count: 1, workers: 1}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render captcha images to PNG files",
		Long: `Render writes a single captcha to --output, or with --count N writes N images
named <i>_<answer>.png into the --output directory.

Image i is drawn from seed+i, so a fixed --seed reproduces the batch
regardless of --workers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, or directory when --count > 1")
	cmd.Flags().StringVarP(&opts.typ, "type", "t", "", "captcha type: code or math (default from config)")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 1, "number of images to render")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 1, "images rendered in parallel")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed for reproducible output")
	cmd.Flags().StringVar(&opts.font, "font", "", "pin a configured font")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

type rendered struct {
	path   string
	answer string
}

func runRender(cmd *cobra.Command, a *app, opts renderOpts) error {
	if opts.count < 1 {
		return fmt.Errorf("--count must be at least 1, got %d", opts.count)
	}

	cfg := a.cfg.Captcha
	if opts.typ != "" {
		t, err := captcha.ParseType(opts.typ)
		if err != nil {
			return err
		}
		cfg.Type = t
	}
	if opts.font != "" {
		cfg.Font = opts.font
	}

	// 提前校验，避免每个 worker 重复报同一个配置错误
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	seed := opts.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	if opts.count > 1 {
		if err := os.MkdirAll(opts.output, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	store := cache.NewMemoryStore(0)
	defer store.Close()
	renderer := glyph.NewRenderer(glyph.NewFontLoader(cfg.AssetsPath))
	logger := a.logger.Named("render")

	results := make([]rendered, opts.count)
	exec := concurrency.NewParallelExecutor(opts.workers)
	errs := exec.Execute(cmd.Context(), opts.count, func(ctx context.Context, i int) error {
		c, err := captcha.New(cfg,
			captcha.WithRand(captcha.NewSeededRand(seed+uint64(i))),
			captcha.WithStore(store),
			captcha.WithGlyphRenderer(renderer),
			captcha.WithLogger(logger),
			captcha.WithKey(fmt.Sprintf("%s:%d", cfg.SessionKey, i)),
		)
		if err != nil {
			return err
		}

		result, err := c.Generate(ctx)
		if err != nil {
			return err
		}

		path := opts.output
		if opts.count > 1 {
			path = filepath.Join(opts.output, fmt.Sprintf("%d_%s.png", i, fileLabel(result.Content.Answer)))
			if filepath.Dir(path) != filepath.Clean(opts.output) {
				return fmt.Errorf("answer %q escapes output dir", result.Content.Answer)
			}
		}
		if err := os.WriteFile(path, result.Image, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}

		logger.Debug("captcha written", zap.String("path", path), zap.String("text", result.Content.Text))
		results[i] = rendered{path: path, answer: result.Content.Answer}
		return nil
	})
	if err := concurrency.FirstError(errs); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(out, "%s\t%s\n", r.path, r.answer)
	}
	return nil
}

// fileLabel 文件名只保留字母和数字，其余字符（/、. 等）替换为 _
func fileLabel(answer string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, answer)
}
