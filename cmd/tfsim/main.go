package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/tfsim/internal/api"
	"github.com/san-kum/tfsim/internal/config"
	"github.com/san-kum/tfsim/internal/control"
	"github.com/san-kum/tfsim/internal/experiment"
	"github.com/san-kum/tfsim/internal/export"
	"github.com/san-kum/tfsim/internal/freq"
	"github.com/san-kum/tfsim/internal/locus"
	"github.com/san-kum/tfsim/internal/lti"
	"github.com/san-kum/tfsim/internal/mechanics"
	"github.com/san-kum/tfsim/internal/optim"
	"github.com/san-kum/tfsim/internal/pfe"
	"github.com/san-kum/tfsim/internal/pz"
	"github.com/san-kum/tfsim/internal/storage"
	"github.com/san-kum/tfsim/internal/timeresp"
	"github.com/san-kum/tfsim/internal/tui"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string

	zeros, poles, cZeros, cPoles, fPoles []float64
	gain, cGain, fGain                   float64
	simulator                            string
	loop                                 string

	tStop      float64
	tPoints    int
	wMin, wMax float64
	wPoints    int
	ts         float64

	num, den []float64
	kMax     float64
	kPoints  int
	kLog     bool

	masses  []float64
	springs []string
	dampers []string
	network string

	outPath  string
	format   string
	asJSON   bool
	saveRun  bool
	rows     int
	plotDir  string
	port     string
	showPlot bool

	pidKind               string
	kGrid, tiGrid, tdGrid []float64
)

// main registers the commands and executes the root command. It exits with
// status 1 when the command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "tfsim",
		Short:         "transfer function analysis lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".tfsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "full report for a plant, controller and filter",
		RunE:  runAnalyze,
	}
	addSystemFlags(analyzeCmd)
	addGridFlags(analyzeCmd)
	analyzeCmd.Flags().Float64Var(&ts, "ts", 0, "sample time for the Tustin comparison (0 disables)")
	analyzeCmd.Flags().BoolVar(&saveRun, "save", false, "save the report under the data directory")
	analyzeCmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	analyzeCmd.Flags().StringVar(&plotDir, "plots", "", "write plot files to this directory")
	analyzeCmd.Flags().StringVar(&format, "format", "svg", "plot format (svg, png, pdf)")

	bodeCmd := &cobra.Command{
		Use:   "bode",
		Short: "bode diagram of a loop",
		RunE:  runBode,
	}
	addSystemFlags(bodeCmd)
	addLoopFlag(bodeCmd, string(experiment.OpenLoop))
	addGridFlags(bodeCmd)
	bodeCmd.Flags().Int("rows", 20, "table rows")
	bodeCmd.Flags().StringVarP(&outPath, "out", "o", "", "plot file (magnitude and phase get _mag/_phase suffixes)")

	nyquistCmd := &cobra.Command{
		Use:   "nyquist",
		Short: "nyquist diagram of a loop",
		RunE:  runNyquist,
	}
	addSystemFlags(nyquistCmd)
	addLoopFlag(nyquistCmd, string(experiment.OpenLoop))
	addGridFlags(nyquistCmd)
	nyquistCmd.Flags().Int("rows", 20, "table rows")
	nyquistCmd.Flags().StringVarP(&outPath, "out", "o", "", "plot file")

	stepCmd := &cobra.Command{
		Use:   "step",
		Short: "step response of a loop",
		RunE:  runStep,
	}
	addSystemFlags(stepCmd)
	addLoopFlag(stepCmd, string(experiment.ClosedLoop))
	addGridFlags(stepCmd)
	stepCmd.Flags().StringVarP(&outPath, "out", "o", "", "plot file")

	discretizeCmd := &cobra.Command{
		Use:   "discretize",
		Short: "tustin equivalent of the plant",
		RunE:  runDiscretize,
	}
	addSystemFlags(discretizeCmd)
	discretizeCmd.Flags().Float64Var(&ts, "ts", 0.1, "sample time")
	discretizeCmd.Flags().StringVarP(&outPath, "out", "o", "", "plot file")

	pfeCmd := &cobra.Command{
		Use:   "pfe",
		Short: "partial-fraction expansion of num/den",
		RunE:  runPFE,
	}
	addCoefficientFlags(pfeCmd)

	pzCmd := &cobra.Command{
		Use:   "pz",
		Short: "zeros and poles of num/den or of a loop",
		RunE:  runPZ,
	}
	addCoefficientFlags(pzCmd)
	addSystemFlags(pzCmd)
	addLoopFlag(pzCmd, string(experiment.PlantLoop))
	pzCmd.Flags().BoolVar(&showPlot, "step", false, "plot the step response of num/den")
	pzCmd.Flags().StringVarP(&outPath, "out", "o", "", "plot file")

	locusCmd := &cobra.Command{
		Use:   "locus",
		Short: "root locus of the open loop",
		RunE:  runLocus,
	}
	addSystemFlags(locusCmd)
	locusCmd.Flags().Float64Var(&kMax, "kmax", config.DefaultLocusMaxGain, "largest gain")
	locusCmd.Flags().IntVar(&kPoints, "points", config.DefaultLocusPoints, "gain samples")
	locusCmd.Flags().BoolVar(&kLog, "log", false, "logarithmic gain spacing")
	locusCmd.Flags().StringVarP(&outPath, "out", "o", "", "plot file")

	msdCmd := &cobra.Command{
		Use:   "msd",
		Short: "state equation of a mass-spring-damper network",
		RunE:  runMSD,
	}
	msdCmd.Flags().Float64SliceVar(&masses, "masses", []float64{1}, "masses")
	msdCmd.Flags().StringSliceVar(&springs, "springs", nil, "springs as from:to:k (to -1 is ground)")
	msdCmd.Flags().StringSliceVar(&dampers, "dampers", nil, "dampers as from:to:c (to -1 is ground)")
	msdCmd.Flags().StringVar(&network, "network", "", "network file (yaml)")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid search controller parameters for the fastest settling loop",
		RunE:  runSearch,
	}
	addSystemFlags(searchCmd)
	searchCmd.Flags().StringVar(&pidKind, "kind", string(control.PID), "controller type (P, I, PI, PD, PID)")
	searchCmd.Flags().Float64SliceVar(&kGrid, "k", nil, "K values")
	searchCmd.Flags().Float64SliceVar(&tiGrid, "ti", nil, "Ti values")
	searchCmd.Flags().Float64SliceVar(&tdGrid, "td", nil, "Td values")
	searchCmd.Flags().Int("rows", 10, "fastest candidates to list")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "write plot files for a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&format, "format", "svg", "plot format (svg, png, pdf)")
	plotCmd.Flags().StringVarP(&plotDir, "out", "o", "", "output directory (default: run directory)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run responses to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a saved report to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := storage.New(dataDir).LoadReport(args[0])
			if err != nil {
				return err
			}
			return storage.ExportJSON(outPath, report)
		},
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list preset groups, or the presets of a group",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, g := range config.ListGroups() {
					fmt.Printf("%s: %s\n", g, strings.Join(config.ListPresets(g), ", "))
				}
				return nil
			}
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets in group: %s\n", args[0])
				return nil
			}
			for _, p := range names {
				fmt.Printf("  %s/%s\n", args[0], p)
			}
			return nil
		},
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "interactive gain tuner",
		RunE: func(cmd *cobra.Command, args []string) error {
			if preset == "" && configFile == "" {
				return tui.RunTuner("", nil)
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return tui.RunTuner(cfg.Name, cfg)
		},
	}
	tuiCmd.Flags().StringVar(&configFile, "config", "", "analysis config file (yaml)")
	tuiCmd.Flags().StringVar(&preset, "preset", "", "preset as group/name")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the HTTP API",
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&port, "port", "", "listen port (default: PORT or 8080)")

	rootCmd.AddCommand(analyzeCmd, bodeCmd, nyquistCmd, stepCmd, discretizeCmd, pfeCmd, pzCmd, locusCmd, msdCmd,
		searchCmd, plotCmd, listCmd, showCmd, exportCSVCmd, exportJSONCmd, presetsCmd, tuiCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	return nil
}

func addSystemFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "analysis config file (yaml)")
	f.StringVar(&preset, "preset", "", "preset as group/name")
	f.Float64SliceVar(&zeros, "zeros", nil, "plant zeros")
	f.Float64SliceVar(&poles, "poles", nil, "plant poles")
	f.Float64Var(&gain, "gain", 1, "plant gain")
	f.Float64SliceVar(&cZeros, "czeros", nil, "controller zeros")
	f.Float64SliceVar(&cPoles, "cpoles", nil, "controller poles")
	f.Float64Var(&cGain, "cgain", 1, "controller gain")
	f.Float64SliceVar(&fPoles, "fpoles", nil, "output filter poles (enables the filter)")
	f.Float64Var(&fGain, "fgain", 1, "output filter gain")
	f.StringVar(&simulator, "sim", config.DefaultSimulator, "step simulator (zoh, foh, euler, rk4, rk45)")
}

func addLoopFlag(cmd *cobra.Command, def string) {
	cmd.Flags().String("loop", def, "loop (plant, open, closed, error, disturbance, filtered)")
}

func addGridFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&tStop, "tstop", config.DefaultTimeStop, "simulation end time")
	f.IntVar(&tPoints, "tpoints", config.DefaultTimePoints, "time samples")
	f.Float64Var(&wMin, "wmin", config.DefaultFreqMin, "lowest frequency decade")
	f.Float64Var(&wMax, "wmax", config.DefaultFreqMax, "highest frequency decade")
	f.IntVar(&wPoints, "wpoints", config.DefaultFreqPoints, "frequency samples")
}

func addCoefficientFlags(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVar(&num, "num", nil, "numerator coefficients, highest power first")
	cmd.Flags().Float64SliceVar(&den, "den", nil, "denominator coefficients, highest power first")
}

// loadConfig starts from the defaults, applies the preset and then the
// config file, and finally every flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		group, name, _ := strings.Cut(preset, "/")
		cfg = config.GetPreset(group, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (groups: %v)", preset, config.ListGroups())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	// loop and rows differ in default per command, so they are read here
	// rather than bound to the shared vars at registration.
	if f := cmd.Flags().Lookup("loop"); f != nil {
		loop = f.Value.String()
	}
	if f := cmd.Flags().Lookup("rows"); f != nil {
		rows, _ = cmd.Flags().GetInt("rows")
	}

	changed := cmd.Flags().Changed
	if changed("zeros") {
		cfg.Plant.Zeros = zeros
	}
	if changed("poles") {
		cfg.Plant.Poles = poles
	}
	if changed("gain") {
		cfg.Plant.Gain = gain
	}
	if changed("czeros") {
		cfg.Controller.Zeros = cZeros
	}
	if changed("cpoles") {
		cfg.Controller.Poles = cPoles
	}
	if changed("cgain") {
		cfg.Controller.Gain = cGain
	}
	if changed("fpoles") {
		cfg.Filter.Enabled = true
		cfg.Filter.Poles = fPoles
	}
	if changed("fgain") {
		cfg.Filter.Gain = fGain
	}
	if changed("sim") {
		cfg.Simulator = simulator
	}
	if changed("tstop") {
		cfg.Time.Stop = tStop
	}
	if changed("tpoints") {
		cfg.Time.Points = tPoints
	}
	if changed("wmin") {
		cfg.Frequency.Min = wMin
	}
	if changed("wmax") {
		cfg.Frequency.Max = wMax
	}
	if changed("wpoints") {
		cfg.Frequency.Points = wPoints
	}
	if changed("ts") {
		cfg.Discrete.Ts = ts
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// selectSystem resolves the --loop flag against cfg.
func selectSystem(cfg *config.Config) (lti.System, error) {
	ls, err := experiment.LoopsFromConfig(cfg)
	if err != nil {
		return lti.System{}, err
	}
	return ls.Select(experiment.Loop(loop))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := experiment.Analyze(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	log.Debug().Dur("elapsed", time.Since(start)).Msg("analysis complete")

	if asJSON {
		if err := storage.WriteJSON(os.Stdout, report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	if saveRun {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, report)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "run id: %s\n", runID)
	}
	if plotDir != "" {
		paths, err := export.WriteReport(report, plotDir, format)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(os.Stderr, "wrote %s\n", p)
		}
	}
	return nil
}

func printReport(r *experiment.Report) {
	if r.Name != "" {
		fmt.Printf("analysis: %s\n\n", r.Name)
	}
	for _, v := range []experiment.SystemView{r.Plant, r.Controller, r.Filter, r.Open, r.Closed} {
		fmt.Println(v.Polynomial)
		if v.Factored != "" {
			fmt.Println(v.Factored)
		}
		fmt.Println(v.Partial)
		fmt.Println()
	}

	if s := r.Settling; s != nil {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SETTLING\tVALUE\tMETHOD")
		fmt.Fprintf(w, "open loop\t%.4gs\t%s\n", s.Open.Value, s.Open.Method)
		fmt.Fprintf(w, "closed loop\t%.4gs\t%s\n", s.Closed.Value, s.Closed.Method)
		fmt.Fprintf(w, "desired\t%.4gs\t\n", s.Desired)
		w.Flush()
		fmt.Println()
	}
	if a := r.Allocation; a != nil {
		fmt.Printf("characteristic: %s\n", a.CharacteristicLatex)
		if a.DesiredLatex != "" {
			fmt.Printf("desired:        %s\n", a.DesiredLatex)
			fmt.Printf("                %s\n", a.Value)
		}
		fmt.Println()
	}
	if pzs := r.PoleZero.Closed; pzs != nil {
		fmt.Println("closed-loop poles:")
		printRoots(pzs.Poles)
		fmt.Println()
	}
	if d := r.Discrete; d != nil {
		fmt.Printf("tustin (Ts = %g): %s\n", d.Ts, d.System.Polynomial)
		fmt.Printf("max step deviation: %.4g\n\n", d.MaxError)
	}
	if p := r.PID; p != nil {
		fmt.Println(p.Latex)
		fmt.Println()
	}
	if c := r.Responses.Closed; c != nil {
		plotSeries("closed-loop step", c)
	}

	for _, w := range r.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for section, msg := range r.Errors {
		fmt.Printf("%s: %s\n", section, msg)
	}
}

func printRoots(roots []experiment.RootView) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ROOT\t|ROOT|\tMULT")
	for _, r := range roots {
		fmt.Fprintf(w, "  %s\t%.4g\t%d\n", r.Label, r.Magnitude, r.Multiplicity)
	}
	w.Flush()
}

func plotSeries(caption string, s *timeresp.Series) {
	graph := asciigraph.Plot(s.Y,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	fmt.Println()
}

func runBode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sys, err := selectSystem(cfg)
	if err != nil {
		return err
	}
	b, err := freq.Bode(sys, freq.LogSpace(cfg.Frequency.Min, cfg.Frequency.Max, cfg.Frequency.Points))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OMEGA\tMAG (dB)\tPHASE (deg)")
	for _, i := range sampleRows(len(b.Omega), rows) {
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\n", b.Omega[i], b.MagDB[i], b.PhaseDeg[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(b.MagDB, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("magnitude (dB)")))

	if outPath == "" {
		return nil
	}
	mag, phase, err := export.BodePlots(b)
	if err != nil {
		return err
	}
	if err := export.Save(mag, suffixed(outPath, "_mag")); err != nil {
		return err
	}
	return export.Save(phase, suffixed(outPath, "_phase"))
}

func runNyquist(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sys, err := selectSystem(cfg)
	if err != nil {
		return err
	}
	n, err := freq.Nyquist(sys, freq.LogSpace(cfg.Frequency.Min, cfg.Frequency.Max, cfg.Frequency.Points))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OMEGA\tRE\tIM")
	for _, i := range sampleRows(len(n.Omega), rows) {
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\n", n.Omega[i], n.Re[i], n.Im[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if outPath == "" {
		return nil
	}
	p, err := export.NyquistPlot(n)
	if err != nil {
		return err
	}
	return export.Save(p, outPath)
}

func runStep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sys, err := selectSystem(cfg)
	if err != nil {
		return err
	}
	sim, err := experiment.NewRegistry().GetSimulator(cfg.Simulator)
	if err != nil {
		return err
	}
	s, err := timeresp.Step(sim, sys, timeresp.Linspace(cfg.Time.Start, cfg.Time.Stop, cfg.Time.Points))
	if errors.Is(err, lti.ErrNonCausal) {
		return fmt.Errorf("%s loop is improper, no step response: %w", loop, err)
	}
	if err != nil {
		return err
	}

	plotSeries(fmt.Sprintf("%s step", loop), s)
	if p, err := sys.Poles(lti.Companion{}); err == nil {
		est := pz.EstimateSettling(p, s.T, s.Y)
		fmt.Printf("settling time: %.4gs (%s)\n", est.Value, est.Method)
	}
	fmt.Printf("final value:   %.6g\n", s.Final())

	if outPath == "" {
		return nil
	}
	p, err := export.StepPlot(fmt.Sprintf("Step response (%s)", loop), []export.Named{{Name: loop, Series: s}})
	if err != nil {
		return err
	}
	return export.Save(p, outPath)
}

func runDiscretize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	plant, err := cfg.Plant.System()
	if err != nil {
		return err
	}
	sim, err := experiment.NewRegistry().GetSimulator(cfg.Simulator)
	if err != nil {
		return err
	}
	dc := cfg.Discrete
	dc.Ts = ts
	d, err := experiment.CompareDiscrete(plant, dc, sim, lti.Companion{})
	if err != nil {
		return err
	}

	fmt.Println(d.System.Polynomial)
	fmt.Println(d.System.Partial)
	fmt.Printf("\nmax step deviation over %d periods: %.4g\n\n", dc.Periods, d.MaxError)

	sampled := timeresp.Resample(d.Sampled, d.Continuous.T)
	fmt.Println(asciigraph.PlotMany([][]float64{d.Continuous.Y, sampled.Y},
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Default, asciigraph.Red),
		asciigraph.Caption("continuous vs tustin"),
	))

	if outPath == "" {
		return nil
	}
	p, err := export.StepPlot(fmt.Sprintf("Tustin, Ts = %g", d.Ts),
		[]export.Named{{Name: "continuous", Series: d.Continuous}, {Name: "discrete", Series: d.Sampled}})
	if err != nil {
		return err
	}
	return export.Save(p, outPath)
}

func coefficientSystem() (lti.System, error) {
	if len(num) == 0 || len(den) == 0 {
		return lti.System{}, errors.New("--num and --den are required")
	}
	return lti.New(num, den)
}

func runPFE(cmd *cobra.Command, args []string) error {
	sys, err := coefficientSystem()
	if err != nil {
		return err
	}
	exp, err := pfe.Expand(sys.Num(), sys.Den(), lti.Companion{})
	if err != nil {
		return err
	}
	view := experiment.ViewPartial(exp, "s")

	fmt.Printf("G(s) = %s\n\n", view.Latex)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POLE\tRESIDUE\tORDER")
	for _, t := range view.Terms {
		fmt.Fprintf(w, "%s\t%s\t%d\n", t.Pole, t.Residue, t.Order)
	}
	if len(view.Quotient) > 0 {
		fmt.Fprintf(w, "direct\t%s\t\n", lti.RenderPolynomial(view.Quotient, "s"))
	}
	return w.Flush()
}

func runPZ(cmd *cobra.Command, args []string) error {
	rf := lti.Companion{}
	if len(num) > 0 || len(den) > 0 {
		if len(num) == 0 || len(den) == 0 {
			return errors.New("--num and --den must be given together")
		}
		v, err := experiment.Signals(num, den, timeresp.NewZOH(), rf, nil)
		if err != nil {
			return err
		}
		fmt.Println(v.System.Polynomial)
		fmt.Println("\nzeros:")
		printRoots(v.Zeros)
		fmt.Println("\npoles:")
		printRoots(v.Poles)
		fmt.Println()
		if showPlot && v.Step != nil {
			plotSeries("step", v.Step)
		}
		for section, msg := range v.Errors {
			fmt.Printf("%s: %s\n", section, msg)
		}
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sys, err := selectSystem(cfg)
	if err != nil {
		return err
	}
	set, err := pz.Analyze(sys, rf, cfg.Snap)
	if err != nil {
		return err
	}
	view := experiment.ViewPoleZero(set)
	fmt.Println(experiment.ViewSystem("H", sys, rf).Polynomial)
	fmt.Println("\nzeros:")
	printRoots(view.Zeros)
	fmt.Println("\npoles:")
	printRoots(view.Poles)

	if outPath == "" {
		return nil
	}
	p, err := export.PoleZeroPlot(fmt.Sprintf("Poles and zeros (%s)", loop), view)
	if err != nil {
		return err
	}
	return export.Save(p, outPath)
}

func runLocus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ls, err := experiment.LoopsFromConfig(cfg)
	if err != nil {
		return err
	}
	l, err := locus.Trace(ls.Open, locus.GainGrid(kMax, kPoints, kLog), lti.Companion{})
	if err != nil {
		return err
	}
	if l.Empty() {
		fmt.Println("open loop has no poles; locus is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BRANCH\tK START\tROOT START\tK END\tROOT END")
	for i, b := range l.Branches {
		s, e := b.Start(), b.End()
		fmt.Fprintf(w, "%d\t%.4g\t%s\t%.4g\t%s\n", i,
			s.Gain, lti.ToComplex(s.Root), e.Gain, lti.ToComplex(e.Root))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if outPath == "" {
		return nil
	}
	p, err := export.LocusPlot(experiment.ViewLocus(l))
	if err != nil {
		return err
	}
	return export.Save(p, outPath)
}

func runMSD(cmd *cobra.Command, args []string) error {
	n := mechanics.Network{Masses: masses}
	if network != "" {
		data, err := os.ReadFile(network)
		if err != nil {
			return err
		}
		n = mechanics.Network{}
		if err := yaml.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("failed to parse network: %w", err)
		}
	}
	for _, s := range springs {
		from, to, k, err := parseElement(s)
		if err != nil {
			return fmt.Errorf("spring %q: %w", s, err)
		}
		n.Springs = append(n.Springs, mechanics.Spring{From: from, To: to, K: k})
	}
	for _, d := range dampers {
		from, to, c, err := parseElement(d)
		if err != nil {
			return fmt.Errorf("damper %q: %w", d, err)
		}
		n.Dampers = append(n.Dampers, mechanics.Damper{From: from, To: to, C: c})
	}

	eq := mechanics.Describe(n)
	fmt.Println(eq.Equation)
	if eq.A != "" {
		fmt.Println()
		fmt.Println("A = " + eq.A)
	}
	return nil
}

// parseElement reads from:to:value.
func parseElement(s string) (int, int, float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, 0, 0, errors.New("want from:to:value")
	}
	from, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, err
	}
	to, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, err
	}
	v, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, 0, 0, err
	}
	return from, to, v, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	plant, err := cfg.Plant.System()
	if err != nil {
		return err
	}
	sim, err := experiment.NewRegistry().GetSimulator(cfg.Simulator)
	if err != nil {
		return err
	}

	base := cfg.PID.Params
	if base.Kind, err = control.ParseKind(pidKind); err != nil {
		return err
	}
	var names []string
	var ranges [][]float64
	for _, g := range []struct {
		name   string
		values []float64
	}{{"K", kGrid}, {"Ti", tiGrid}, {"Td", tdGrid}} {
		if len(g.values) > 0 {
			names = append(names, g.name)
			ranges = append(ranges, g.values)
		}
	}
	if len(names) == 0 {
		names, ranges = []string{"K"}, [][]float64{optim.Range(0.5, 10, 20)}
	}
	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := gs.Search(cmd.Context(), plant, base, sim, lti.Companion{},
		timeresp.Linspace(0, cfg.PID.Stop, cfg.PID.Points))
	if err != nil && !errors.Is(err, optim.ErrNoCandidate) {
		return err
	}
	log.Debug().Int("evaluated", res.Evaluated).Dur("elapsed", time.Since(start)).Msg("search complete")
	if res.Best == nil {
		fmt.Printf("no stable candidate among %d\n", res.Evaluated)
		return nil
	}

	stable := make([]optim.Candidate, 0, len(res.All))
	for _, c := range res.All {
		if c.Stable {
			stable = append(stable, c)
		}
	}
	sort.SliceStable(stable, func(i, j int) bool {
		return stable[i].Settling.Value < stable[j].Settling.Value
	})
	if rows > 0 && len(stable) > rows {
		stable = stable[:rows]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "K\tTi\tTd\tSETTLING\tOVERSHOOT")
	for _, c := range stable {
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\t%.4gs\t%.1f%%\n",
			c.Params.K, c.Params.Ti, c.Params.Td, c.Settling.Value, 100*c.Overshoot)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d evaluated, %d rejected\n", res.Evaluated, res.Rejected)
	fmt.Println(res.Best.Params.Latex())
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	report, err := st.LoadReport(args[0])
	if err != nil {
		return err
	}
	dir := plotDir
	if dir == "" {
		dir = filepath.Join(st.Dir(args[0]), "plots")
	}
	paths, err := export.WriteReport(report, dir, format)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSIM\tTS OPEN\tTS CLOSED\tERRORS")
	for _, run := range runs {
		open, closed := "-", "-"
		if run.Settling != nil {
			open = fmt.Sprintf("%.3gs", run.Settling.Value)
		}
		if run.Closed != nil {
			closed = fmt.Sprintf("%.3gs", run.Closed.Value)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Simulator,
			open,
			closed,
			len(run.Errors),
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	if err := storage.WriteJSON(os.Stdout, meta); err != nil {
		return err
	}

	header, cols, err := st.LoadResponses(args[0])
	if errors.Is(err, storage.ErrNoSeries) || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println()
	for i := 1; i < len(header); i++ {
		plotSeries(header[i], &timeresp.Series{T: cols[0], Y: cols[i]})
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	header, cols, err := storage.New(dataDir).LoadResponses(args[0])
	if err != nil {
		return err
	}

	out := os.Stdout
	if outPath != "" && outPath != "-" {
		file, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return err
	}
	row := make([]string, len(cols))
	for i := range cols[0] {
		for j := range cols {
			row[j] = strconv.FormatFloat(cols[j][i], 'g', 10, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if out != os.Stdout {
		fmt.Fprintf(os.Stderr, "exported %d rows to %s\n", len(cols[0]), outPath)
	}
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if !cmd.Flags().Changed("log-level") {
		if err := setupLogging(cfg.LogLevel); err != nil {
			return err
		}
	}
	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("max_points", cfg.MaxPoints).
		Msg("configuration loaded")

	router, _ := api.NewRouter(cfg)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("starting tfsim API server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}

// sampleRows picks at most n evenly spaced indices out of total, always
// including the last one.
func sampleRows(total, n int) []int {
	if n <= 0 || n >= total {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		idx = append(idx, i*(total-1)/(n-1))
	}
	return idx
}

func suffixed(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}
