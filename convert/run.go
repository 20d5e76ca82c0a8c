package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"pbc/archive"
	"pbc/config"
	"pbc/state"
	"pbc/validate"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	opts, err := buildOptions(cmd, env, log)
	if err != nil {
		return err
	}

	var validator *validate.Validator
	if opts.Validation != nil {
		if validator, err = prepareValidator(env, log); err != nil {
			return fmt.Errorf("unable to prepare validator: %w", err)
		}
	}
	engine := NewEngine(validator, env.Log)

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old crawl bundles
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in bundles", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("schema", opts.Schema))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, engine, opts, log)
}

// RunBatch converts a directory of pages concurrently. It shares all the
// conversion machinery with Run but insists on a directory source and allows
// overriding the configured worker count.
func RunBatch(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	if jobs := cmd.Int("jobs"); jobs > 0 {
		env.Cfg.Batch.Jobs = int(jobs)
	}

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found (%s): %w", src, err)
	}
	if !fi.Mode().IsDir() {
		return fmt.Errorf("batch source must be a directory (%s)", src)
	}
	return Run(ctx, cmd)
}

// RunValidate converts a single page with fidelity checks forced on and
// writes the validation report instead of the export document.
func RunValidate(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("validate")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read page (%s): %w", src, err)
	}

	opts, err := buildOptions(cmd, env, log)
	if err != nil {
		return err
	}
	vc := env.Cfg.Validation
	opts.Validation = &validate.Options{
		Visual:         vc.Visual,
		Assets:         vc.Assets,
		CustomCode:     vc.CustomCode,
		PixelThreshold: vc.PixelThreshold,
		ViewportWidth:  vc.ViewportWidth,
		ViewportHeight: vc.ViewportHeight,
		Timeout:        time.Duration(vc.Timeout) * time.Second,
	}

	validator, err := prepareValidator(env, log)
	if err != nil {
		return fmt.Errorf("unable to prepare validator: %w", err)
	}
	engine := NewEngine(validator, env.Log)

	log.Info("Validation starting", zap.String("source", src))
	defer func(start time.Time) {
		log.Info("Validation completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	res, err := engine.Convert(ctx, data, opts)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("unable to convert page: %s", strings.Join(res.Errors, "; "))
	}

	report, err := json.MarshalIndent(res.Validation, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to serialize report: %w", err)
	}
	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("validation/%s.json", filepath.Base(src)), report)
	}

	out := os.Stdout
	if fname := cmd.Args().Get(1); len(fname) > 0 {
		if out, err = os.Create(fname); err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer out.Close()
	}
	if _, err := out.Write(report); err != nil {
		return err
	}

	if !res.Validation.Valid {
		return fmt.Errorf("validation failed with score %.0f", res.Validation.Score)
	}
	return nil
}

// buildOptions folds configuration values and command line overrides into
// engine options.
func buildOptions(cmd *cli.Command, env *state.LocalEnv, log *zap.Logger) (Options, error) {
	cc := env.Cfg.Conversion

	opts := Options{
		Schema:          cc.Schema,
		MinConfidence:   cc.MinConfidence,
		ReviewBand:      cc.ReviewBand,
		FallbackRawHTML: &cc.FallbackRawHTML,
		Optimize:        &cc.Optimize,
		ViewportWidth:   cc.ViewportWidth,
		Encoding:        cc.Encoding,
		BaseURL:         cmd.String("base-url"),
	}

	if name := cmd.String("schema"); len(name) > 0 {
		schema, err := config.ParseTargetSchema(name)
		if err != nil {
			log.Warn("Unknown target schema requested, using elementor", zap.Error(err))
			schema = config.TargetSchemaElementor
		}
		opts.Schema = schema
	}

	if cc.StylesheetPath != "" {
		data, err := os.ReadFile(cc.StylesheetPath)
		if err != nil {
			return opts, fmt.Errorf("unable to read style css from %q: %w", cc.StylesheetPath, err)
		}
		env.DefaultStyle = data
		opts.ExtraCSS = data
	}

	if cmd.Bool("validate") {
		vc := env.Cfg.Validation
		opts.Validation = &validate.Options{
			Visual:         vc.Visual,
			Assets:         vc.Assets,
			CustomCode:     vc.CustomCode,
			PixelThreshold: vc.PixelThreshold,
			ViewportWidth:  vc.ViewportWidth,
			ViewportHeight: vc.ViewportHeight,
			Timeout:        time.Duration(vc.Timeout) * time.Second,
		}
	}
	return opts, nil
}

func prepareValidator(env *state.LocalEnv, log *zap.Logger) (*validate.Validator, error) {
	renderer, err := validate.NewRodRenderer(env.Cfg.Validation.BrowserURL)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(env.Cfg.Validation.Timeout) * time.Second
	return validate.NewValidator(renderer, validate.NewHTTPFetcher(timeout), log), nil
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, crawl bundle, or single page) and
// processes accordingly.
func process(ctx context.Context, src, dst string, engine *Engine, opts Options, log *zap.Logger) error {
	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found (%s): %w", src, err)
	}

	if fi.Mode().IsDir() {
		return processDir(ctx, src, dst, engine, opts, log)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("unexpected path mode for (%s)", src)
	}

	bundle, err := isBundleFile(src)
	if err != nil {
		return fmt.Errorf("unable to check bundle type: %w", err)
	}
	if bundle {
		return processBundle(ctx, src, dst, engine, opts, log)
	}

	if archive.IsPageFile(filepath.ToSlash(src)) {
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("unable to read page (%s): %w", src, err)
		}
		return processPage(ctx, engine, Page{Name: filepath.Base(src), HTML: data}, dst, opts, log)
	}
	return fmt.Errorf("input was not recognized as HTML page or crawl bundle (%s)", src)
}

// isBundleFile sniffs for the zip local file header.
func isBundleFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	var sig [4]byte
	if _, err := f.Read(sig[:]); err != nil {
		return false, nil
	}
	return sig == [4]byte{'P', 'K', 0x03, 0x04}, nil
}

// namedCSS keeps a collected stylesheet together with its source name so the
// cascade order is reproducible.
type namedCSS struct {
	name string
	data []byte
}

// processDir walks a directory tree and converts the HTML pages found there
// as one batch, with the stylesheets next to them applied to every page.
func processDir(ctx context.Context, dir, dst string, engine *Engine, opts Options, log *zap.Logger) error {
	pages, sheets, err := loadDir(ctx, dir, log)
	if err != nil {
		return err
	}

	if len(pages) == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
		return nil
	}
	opts.ExtraCSS = joinCSS(opts.ExtraCSS, sheets)
	sortPages(pages)
	return processPages(ctx, engine, pages, dst, opts, log)
}

// loadDir collects HTML pages and stylesheets from a directory tree. A file
// that cannot be read is logged and skipped, it must not fail the batch.
func loadDir(ctx context.Context, dir string, log *zap.Logger) ([]Page, []namedCSS, error) {
	var (
		pages  []Page
		sheets []namedCSS
	)
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		name := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		switch {
		case archive.IsPageFile(filepath.ToSlash(path)):
			data, err := os.ReadFile(path)
			if err != nil {
				log.Error("Unable to read page", zap.String("file", path), zap.Error(err))
				return nil
			}
			pages = append(pages, Page{Name: name, HTML: data})
		case archive.IsStyleFile(filepath.ToSlash(path)):
			data, err := os.ReadFile(path)
			if err != nil {
				log.Error("Unable to read stylesheet", zap.String("file", path), zap.Error(err))
				return nil
			}
			sheets = append(sheets, namedCSS{name: name, data: data})
		default:
			log.Debug("Skipping file, not recognized as HTML page or stylesheet", zap.String("file", path))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return pages, sheets, nil
}

// processBundle converts all HTML pages inside a crawl bundle as one batch,
// with the stylesheets the bundle carries applied to every page.
func processBundle(ctx context.Context, path, dst string, engine *Engine, opts Options, log *zap.Logger) error {
	pages, sheets, err := loadBundle(ctx, path, state.EnvFromContext(ctx).CodePage, log)
	if err != nil {
		return fmt.Errorf("unable to process bundle: %w", err)
	}

	if len(pages) == 0 {
		log.Debug("Nothing to process", zap.String("bundle", path))
		return nil
	}
	opts.ExtraCSS = joinCSS(opts.ExtraCSS, sheets)
	sortPages(pages)
	return processPages(ctx, engine, pages, dst, opts, log)
}

// loadBundle collects HTML pages and stylesheets from a crawl bundle.
func loadBundle(ctx context.Context, path string, cp encoding.Encoding, log *zap.Logger) ([]Page, []namedCSS, error) {
	var pages []Page
	err := archive.WalkPages(path, func(bundle string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := archive.ReadFile(f)
		if err != nil {
			log.Error("Unable to read page in bundle",
				zap.String("bundle", bundle), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}

		name := f.FileHeader.Name
		if cp != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(name); err == nil {
				name = n
			} else {
				cn, _ := ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert bundle name from specified encoding",
					zap.String("charset", cn), zap.String("path", name), zap.Error(err))
			}
		}
		pages = append(pages, Page{Name: name, HTML: data})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var sheets []namedCSS
	err = archive.Walk(path, "", func(bundle string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !archive.IsStyleFile(f.Name) {
			return nil
		}
		data, err := archive.ReadFile(f)
		if err != nil {
			log.Error("Unable to read stylesheet in bundle",
				zap.String("bundle", bundle), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		sheets = append(sheets, namedCSS{name: f.FileHeader.Name, data: data})
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return pages, sheets, nil
}

// joinCSS appends collected stylesheets after the configured CSS, in natural
// name order so the cascade does not depend on walk order.
func joinCSS(base []byte, sheets []namedCSS) []byte {
	if len(sheets) == 0 {
		return base
	}
	sort.Slice(sheets, func(i, j int) bool {
		return natural.Less(sheets[i].name, sheets[j].name)
	})
	var buf bytes.Buffer
	buf.Write(base)
	for _, s := range sheets {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.Write(s.data)
	}
	return buf.Bytes()
}

func processPages(ctx context.Context, engine *Engine, pages []Page, dst string, opts Options, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	results := engine.ConvertPages(ctx, pages, opts, env.Cfg.Batch.Jobs)
	for _, pr := range results {
		if pr.Err != nil {
			log.Error("Unable to convert page", zap.String("page", pr.Name), zap.Error(pr.Err))
			continue
		}
		if err := writeResult(ctx, pr.Name, pr.Result, dst, log); err != nil {
			log.Error("Unable to store result", zap.String("page", pr.Name), zap.Error(err))
		}
	}
	return nil
}

// processPage converts a single page. Conversion of one page must not take
// the whole run down, so panics are contained here.
func processPage(ctx context.Context, engine *Engine, page Page, dst string, opts Options, log *zap.Logger) (rerr error) {
	log.Info("Conversion starting", zap.String("from", page.Name))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)))
		}
	}(time.Now())

	res, err := engine.Convert(ctx, page.HTML, opts)
	if err != nil {
		return err
	}
	return writeResult(ctx, page.Name, res, dst, log)
}

// writeResult stores the export document next to intended destination and,
// when debugging, keeps the complete conversion result in the report.
func writeResult(ctx context.Context, name string, res *Result, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	if !res.Success {
		log.Error("Conversion failed", zap.String("page", name), zap.Strings("errors", res.Errors))
	} else if len(res.Errors) > 0 {
		log.Warn("Conversion degraded", zap.String("page", name), zap.Strings("errors", res.Errors))
	}
	if res.Stats.ManualReview > 0 {
		log.Warn("Components flagged for manual review",
			zap.String("page", name), zap.Int("count", res.Stats.ManualReview))
	}

	outputName := buildOutputPath(name, dst, env.NoDirs)
	if tmpl := env.Cfg.Conversion.OutputNameTemplate; tmpl != "" && res.Success {
		expanded, err := expandOutputName(tmpl, buildValues(name, res))
		if err != nil {
			log.Warn("Ignoring output name template", zap.Error(err))
		} else {
			outputName = filepath.Join(filepath.Dir(outputName), expanded+".json")
		}
	}

	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	if env.Rpt != nil {
		if data, err := json.MarshalIndent(res, "", "  "); err == nil {
			env.Rpt.StoreData(fmt.Sprintf("result/%s.json", filepath.Base(outputName)), data)
		}
		env.Rpt.StoreData(fmt.Sprintf("hierarchy/%s.txt", filepath.Base(outputName)), []byte(DumpHierarchy(res.Hierarchy)))
	}

	if !res.Success {
		return nil
	}

	data, err := json.MarshalIndent(res.Document, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to serialize document: %w", err)
	}
	if err := os.WriteFile(outputName, data, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	log.Info("Document written", zap.String("file", outputName),
		zap.Int("widgets", res.Stats.NativeWidgets), zap.Int("fallbacks", res.Stats.Fallbacks))
	return nil
}

// sortPages orders collected pages naturally ("page2" before "page10") so
// batch output is deterministic regardless of walk order.
func sortPages(pages []Page) {
	sort.Slice(pages, func(i, j int) bool {
		return natural.Less(pages[i].Name, pages[j].Name)
	})
}

// buildOutputPath derives the output file name from the page's relative
// source name. Directory structure of the source is kept unless noDirs is
// set.
func buildOutputPath(name, dst string, noDirs bool) string {
	name = filepath.FromSlash(name)
	if noDirs {
		name = filepath.Base(name)
	}
	ext := filepath.Ext(name)
	return filepath.Join(dst, strings.TrimSuffix(name, ext)+".json")
}
