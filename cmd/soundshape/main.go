// Command soundshape ingests fonts and searches their design space for
// sound-shape systematicity.
//
// Usage:
//
//	soundshape <command> [flags]
//
// Commands are ingest, sounds, evaluate, grid, random, anneal and show.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/wbrown/soundshape"
	"github.com/wbrown/soundshape/phoneme"
	"github.com/wbrown/soundshape/store"
	"github.com/wbrown/soundshape/visualize"
)

const usage = `usage: soundshape <command> [flags]

commands:
  ingest    store every font under -dir, or an installed font named by -system
  sounds    print the phonetic distance table
  evaluate  evaluate every font at its default coordinates
  grid      grid search over each axis of every variable font
  random    random search over every variable font
  anneal    simulated annealing over every variable font
  show      draw the glyph pairs of a glyph set

run "soundshape <command> -h" for the flags of a command.
`

// common holds the flags shared by every command.
type common struct {
	fs        *flag.FlagSet
	db        *string
	config    *string
	chars     *string
	sizes     *string
	font      *string
	seed      *int64
	engine    *string
	threshold *int
	verbose   *bool
}

func newCommon(name string) *common {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	def := soundshape.DefaultConfig()
	return &common{
		fs:     fs,
		db:     fs.String("db", def.DB, "Path to the database file"),
		config: fs.String("config", "", "Path to a JSON config file; flags override its values"),
		chars: fs.String("chars", def.Chars,
			"Characters to evaluate, each needs a phoneme entry"),
		sizes:     fs.String("sizes", "12", "Comma separated pixel sizes"),
		font:      fs.String("font", "", "Only use the stored font with this name"),
		seed:      fs.Int64("seed", 0, "Random seed, 0 for time based"),
		engine:    fs.String("engine", def.Engine, "Rasterizer: auto, freetype or gotext"),
		threshold: fs.Int("threshold", def.Threshold, "Coverage 1-255 at which a freetype pixel becomes ink"),
		verbose:   fs.Bool("v", false, "Log per-candidate progress"),
	}
}

// load merges the config file with explicitly set flags and configures
// logging. The caller validates the result.
func (c *common) load() (soundshape.Config, error) {
	cfg := soundshape.DefaultConfig()
	if *c.config != "" {
		var err error
		if cfg, err = soundshape.LoadConfig(*c.config); err != nil {
			return cfg, err
		}
	}

	var parseErr error
	c.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DB = *c.db
		case "chars":
			cfg.Chars = *c.chars
		case "sizes":
			sizes, err := parseSizes(*c.sizes)
			if err != nil {
				parseErr = err
			}
			cfg.Sizes = sizes
		case "seed":
			cfg.Seed = *c.seed
		case "engine":
			cfg.Engine = *c.engine
		case "threshold":
			cfg.Threshold = *c.threshold
		}
	})
	if parseErr != nil {
		return cfg, parseErr
	}

	level := slog.LevelWarn
	if *c.verbose {
		level = slog.LevelInfo
	}
	soundshape.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return cfg, nil
}

func parseSizes(s string) ([]int, error) {
	var sizes []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, &soundshape.ConfigError{Param: "sizes", Reason: fmt.Sprintf("%q is not a number", f)}
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

func (c *common) evaluator(cfg soundshape.Config, s *store.Store) (*soundshape.Evaluator, error) {
	opts := []soundshape.Option{
		soundshape.WithEngine(cfg.Engine),
		soundshape.WithThreshold(uint8(cfg.Threshold)),
	}
	if cfg.Seed != 0 {
		opts = append(opts, soundshape.WithSeed(cfg.Seed))
	}
	return soundshape.NewEvaluator(s, opts...)
}

// fonts returns the font named by -font, or every stored font.
func (c *common) fonts(s *store.Store) ([]store.Font, error) {
	var fonts []store.Font
	err := s.View(func(tx *store.Tx) error {
		if *c.font != "" {
			f, err := tx.FontByName(*c.font)
			if err != nil {
				return fmt.Errorf("font %q: %w", *c.font, err)
			}
			fonts = []store.Font{f}
			return nil
		}
		var err error
		fonts, err = tx.Fonts()
		return err
	})
	if err == nil && len(fonts) == 0 {
		err = errors.New("no fonts stored, run soundshape ingest first")
	}
	return fonts, err
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "ingest":
		err = runIngest(args)
	case "sounds":
		err = runSounds(args)
	case "evaluate", "grid", "random", "anneal":
		err = runSearch(cmd, args)
	case "show":
		err = runShow(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runIngest(args []string) error {
	c := newCommon("ingest")
	dir := c.fs.String("dir", "fonts", "Directory to scan for .otf and .ttf files")
	system := c.fs.String("system", "", "Name of an installed font to ingest instead of -dir")
	c.fs.Parse(args)

	cfg, err := c.load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer s.Close()

	if *system != "" {
		f, err := soundshape.IngestSystemFont(s, *system)
		if errors.Is(err, store.ErrExists) {
			fmt.Printf("%s already stored as font %d\n", f.Name, f.ID)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("font %d: %s, %d axes\n", f.ID, f.Name, len(f.Axes))
		return nil
	}

	added, err := soundshape.Ingest(s, *dir)
	for _, f := range added {
		fmt.Printf("font %d: %s, %d axes\n", f.ID, f.Name, len(f.Axes))
	}
	fmt.Printf("%d fonts added\n", len(added))
	return err
}

func runSounds(args []string) error {
	c := newCommon("sounds")
	metric := c.fs.String("metric", "", "Only print this metric: "+strings.Join(phoneme.Metrics, ", "))
	c.fs.Parse(args)

	cfg, err := c.load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer s.Close()
	if _, err := c.evaluator(cfg, s); err != nil {
		return err
	}

	metrics := phoneme.Metrics
	if *metric != "" {
		metrics = []string{*metric}
	}
	return s.View(func(tx *store.Tx) error {
		for _, m := range metrics {
			ds, err := tx.SoundDistances(m)
			if err != nil {
				return err
			}
			if len(ds) == 0 {
				return &soundshape.ConfigError{Param: "metric", Reason: fmt.Sprintf("unknown metric %q", m)}
			}
			for _, d := range ds {
				fmt.Printf("%-10s %c %c %8.4f\n", d.Metric, d.Char1, d.Char2, d.Distance)
			}
		}
		return nil
	})
}

func runSearch(cmd string, args []string) error {
	c := newCommon(cmd)
	def := soundshape.DefaultConfig()
	count := c.fs.Int("count", def.Grid.Count, "Grid values per axis")
	points := c.fs.Int("points", def.Random.Points, "Random points between the two corners")
	temp := c.fs.Float64("temp", def.Anneal.InitialTemperature, "Initial annealing temperature")
	iterations := c.fs.Int("iterations", def.Anneal.Iterations, "Annealing iterations")
	step := c.fs.Float64("step", def.Anneal.StepRange, "Annealing step as a fraction of each axis range")
	uniform := c.fs.Bool("uniform", def.Anneal.Uniform, "Perturb uniformly instead of normally")
	c.fs.Parse(args)

	cfg, err := c.load()
	if err != nil {
		return err
	}
	c.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "count":
			cfg.Grid.Count = *count
		case "points":
			cfg.Random.Points = *points
		case "temp":
			cfg.Anneal.InitialTemperature = *temp
		case "iterations":
			cfg.Anneal.Iterations = *iterations
		case "step":
			cfg.Anneal.StepRange = *step
		case "uniform":
			cfg.Anneal.Uniform = *uniform
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := store.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer s.Close()
	ev, err := c.evaluator(cfg, s)
	if err != nil {
		return err
	}
	fonts, err := c.fonts(s)
	if err != nil {
		return err
	}

	r := &soundshape.Runner{Evaluator: ev, Chars: cfg.Runes(), Sizes: cfg.Sizes}
	var outcomes []soundshape.Outcome
	switch cmd {
	case "evaluate":
		outcomes, err = r.EvaluateFonts(fonts)
	case "grid":
		outcomes, err = r.Run(cfg.Grid, fonts)
	case "random":
		outcomes, err = r.Run(cfg.Random, fonts)
	case "anneal":
		outcomes, err = r.Run(cfg.Anneal, fonts)
	}
	for _, o := range outcomes {
		report(o)
	}
	return err
}

func report(o soundshape.Outcome) {
	if !o.HasBest {
		fmt.Printf("%s size %d: no candidate rendered (%d skipped)\n", o.Font, o.Size, o.Skipped)
		return
	}
	b := o.Best.Result
	fmt.Printf("%s size %d: glyphset %d coords %v edit %.4f edit_sum %.4f euclidean %.4f hamming %.4f (%d evaluated, %d skipped)\n",
		o.Font, o.Size, b.GlyphSetID, o.Best.Coords, b.Edit, b.EditSum, b.Euclidean, b.Hamming,
		len(o.Candidates), o.Skipped)
	for _, a := range o.PerAxis {
		fmt.Printf("  %s best at %g: %.4f\n", a.Tag, a.Value, a.Score)
	}
}

func runShow(args []string) error {
	c := newCommon("show")
	id := c.fs.Uint64("glyphset", 0, "Glyph set to draw (required)")
	out := c.fs.String("out", "img", "Output directory")
	pair := c.fs.String("pair", "", "Only draw this character pair, e.g. ab")
	c.fs.Parse(args)

	if *id == 0 {
		fmt.Println("Please provide the glyph set using the -glyphset flag")
		c.fs.PrintDefaults()
		return nil
	}
	cfg, err := c.load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return err
	}
	s, err := store.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer s.Close()

	ev, err := c.evaluator(cfg, s)
	if err != nil {
		return err
	}
	slog.Info("drawing glyph set", "glyphset", *id, "db", s.Path())
	if _, err := ev.GetAndSaveShapeDistances(*id); err != nil {
		return err
	}
	n, err := visualize.SaveGlyphSet(s, *id, *out, *pair)
	if err != nil {
		return err
	}
	fmt.Printf("%d images written to %s\n", n, *out)
	return nil
}
