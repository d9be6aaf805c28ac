package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"github.com/openvrt/vrtcodec/internal/common"
	"github.com/openvrt/vrtcodec/internal/manifest"
	"github.com/openvrt/vrtcodec/internal/report"
	"github.com/openvrt/vrtcodec/internal/rules"
	"github.com/openvrt/vrtcodec/internal/vrt"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	switch os.Args[1] {
	case "inspect":
		inspectCmd(os.Args[2:])
	case "manifest":
		manifestCmd(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Printf(`vrtinspect %s (built %s) <command> [options]

Commands:
  inspect   --config <config.yaml> --in <dir or file> [--out-dir <dir>]
  manifest  --inputs <comma-separated> --out <manifest.json> [--sign --key <key.pem>]
`, version, buildDate)
}

type logConfig struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

type config struct {
	RulePack    string    `yaml:"rulePack"`
	OutDir      string    `yaml:"outDir"`
	Concurrency int       `yaml:"concurrency"`
	CIF7        bool      `yaml:"cif7"`
	Logs        logConfig `yaml:"logs"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "./out"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if cfg.Logs.Directory == "" {
		cfg.Logs.Directory = filepath.Join(cfg.OutDir, "logs")
	}
	if cfg.Logs.MaxSizeMB <= 0 {
		cfg.Logs.MaxSizeMB = 25
	}
	if cfg.Logs.MaxAgeDays <= 0 {
		cfg.Logs.MaxAgeDays = 7
	}
	if cfg.Logs.MaxBackups <= 0 {
		cfg.Logs.MaxBackups = 5
	}
	return cfg, nil
}

func setupLogging(cfg config) (func(), error) {
	if err := os.MkdirAll(cfg.Logs.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Logs.Directory, "vrtinspect.log"),
		MaxSize:    cfg.Logs.MaxSizeMB,
		MaxAge:     cfg.Logs.MaxAgeDays,
		MaxBackups: cfg.Logs.MaxBackups,
		Compress:   cfg.Logs.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return func() { rotator.Close() }, nil
}

func defaultRulePack() rules.RulePack {
	mk := func(id, fn, sev string) rules.Rule {
		return rules.Rule{RuleId: id, Scope: "file", Severity: rules.Severity(sev), FixFunc: fn}
	}
	return rules.RulePack{
		RulePackId: "vrtinspect-builtin",
		Version:    "1",
		Profile:    "default",
		Rules: []rules.Rule{
			mk("size-fresh", "CheckSizeFresh", "ERROR"),
			mk("cif7-supported", "CheckCIF7Supported", "WARN"),
			mk("reserved-cif-bits", "CheckReservedCIFBits", "WARN"),
			mk("ack-class-consistent", "CheckAckClassConsistent", "WARN"),
			mk("signal-data-nonempty", "CheckSignalDataNonEmpty", "WARN"),
			mk("trailer-state-event", "CheckTrailerStateEventAgreesWithContext", "WARN"),
		},
	}
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	in := fs.String("in", "", "capture file or directory of .vrt captures")
	outDir := fs.String("out-dir", "", "overrides config outDir")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}

	cfg := config{}
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "./out"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create out dir: %v\n", err)
		os.Exit(1)
	}
	stopLogging, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup logging: %v\n", err)
		os.Exit(1)
	}
	defer stopLogging()

	rp := defaultRulePack()
	if cfg.RulePack != "" {
		rp, err = rules.LoadRulePack(cfg.RulePack)
		if err != nil {
			log.Fatalf("load rule pack: %v", err)
		}
	}

	files, err := captureFiles(*in)
	if err != nil {
		log.Fatalf("enumerate captures: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no .vrt captures found under %s", *in)
	}

	metrics := common.NewMetrics()
	metrics.Start()
	metrics.SetTotalBytes(totalSize(files))
	stopProgress := common.StartProgressPrinter(os.Stdout, metrics, time.Second)

	results := inspectAll(files, rp, vrt.Features{CIF7: cfg.CIF7}, cfg.Concurrency, metrics)

	metrics.Stop()
	stopProgress()

	var artifacts []string
	for _, r := range results {
		base := strings.TrimSuffix(filepath.Base(r.file), filepath.Ext(r.file))
		ndjsonPath := filepath.Join(cfg.OutDir, base+".diagnostics.ndjson")
		accPath := filepath.Join(cfg.OutDir, base+".acceptance.json")
		pdfPath := filepath.Join(cfg.OutDir, base+".acceptance.pdf")

		if r.err != nil {
			log.Printf("%s: %v", r.file, r.err)
			continue
		}
		if err := r.engine.WriteDiagnosticsNDJSON(ndjsonPath); err != nil {
			log.Printf("%s: write diagnostics: %v", r.file, err)
			continue
		}
		acc := r.engine.MakeAcceptance()
		if err := report.SaveAcceptanceJSON(acc, accPath); err != nil {
			log.Printf("%s: write acceptance: %v", r.file, err)
			continue
		}
		if err := report.SaveAcceptancePDF(acc, pdfPath); err != nil {
			log.Printf("%s: write pdf: %v", r.file, err)
			continue
		}
		artifacts = append(artifacts, r.file, ndjsonPath, accPath, pdfPath)
	}

	m, err := manifest.Build(artifacts)
	if err != nil {
		log.Fatalf("build manifest: %v", err)
	}
	manifestPath := filepath.Join(cfg.OutDir, "manifest.json")
	if err := manifest.Save(m, manifestPath); err != nil {
		log.Fatalf("save manifest: %v", err)
	}
	if err := writeManifestQR(manifestPath, cfg.OutDir); err != nil {
		log.Printf("write manifest QR: %v", err)
	}

	printSummary(results)
}

type inspectResult struct {
	file   string
	engine *rules.Engine
	err    error
}

func captureFiles(in string) ([]string, error) {
	info, err := os.Stat(in)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{in}, nil
	}
	var files []string
	err = filepath.Walk(in, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".vrt") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func totalSize(files []string) int64 {
	var total int64
	for _, f := range files {
		if st, err := os.Stat(f); err == nil {
			total += st.Size()
		}
	}
	return total
}

// inspectAll evaluates the given rule pack against every capture file
// concurrently, bounded by concurrency.
func inspectAll(files []string, rp rules.RulePack, features vrt.Features, concurrency int, metrics *common.Metrics) []inspectResult {
	results := make([]inspectResult, len(files))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, f string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = inspectOne(f, rp, features, metrics)
		}(i, f)
	}
	wg.Wait()
	return results
}

func inspectOne(file string, rp rules.RulePack, features vrt.Features, metrics *common.Metrics) inspectResult {
	e := rules.NewEngine(rp)
	e.RegisterBuiltins()
	ctx := &rules.Context{InputFile: file, Features: features}
	if _, err := e.Eval(ctx); err != nil {
		return inspectResult{file: file, engine: e, err: err}
	}
	for _, p := range ctx.Packets {
		metrics.AddPacket(int64(p.Header.PacketSizeWords) * 4)
	}
	return inspectResult{file: file, engine: e}
}

// writeManifestQR hashes the saved manifest file and renders that hash as a
// QR code PNG next to it, so a paper record of the run can be paired back to
// the manifest by scanning it.
func writeManifestQR(manifestPath, outDir string) error {
	hash, _, err := common.Sha256OfFile(manifestPath)
	if err != nil {
		return err
	}
	png, err := report.ManifestHashToQR(hash, 256)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, "manifest-qr.png"), png, 0644)
}

func printSummary(results []inspectResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tFINDINGS\tERRORS\tWARNINGS\tSTATUS")
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%v\n", r.file, r.err)
			continue
		}
		acc := r.engine.MakeAcceptance()
		status := "PASS"
		if !acc.Summary.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", r.file, acc.Summary.Total, acc.Summary.Errors, acc.Summary.Warnings, status)
	}
	w.Flush()
}

func manifestCmd(args []string) {
	fs := flag.NewFlagSet("manifest", flag.ExitOnError)
	inputs := fs.String("inputs", "", "comma-separated list of files")
	out := fs.String("out", "manifest.json", "manifest output path")
	sign := fs.Bool("sign", false, "sign the manifest with --key")
	keyPath := fs.String("key", "", "PEM-encoded RSA private key")
	fs.Parse(args)

	if *inputs == "" {
		fmt.Println("required: --inputs")
		os.Exit(1)
	}
	paths := strings.Split(*inputs, ",")
	m, err := manifest.Build(paths)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build manifest: %v\n", err)
		os.Exit(1)
	}
	if *sign {
		if *keyPath == "" {
			fmt.Println("--sign requires --key")
			os.Exit(1)
		}
		keyPEM, err := os.ReadFile(*keyPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read key: %v\n", err)
			os.Exit(1)
		}
		if err := manifest.Sign(&m, *out, keyPEM); err != nil {
			fmt.Fprintf(os.Stderr, "sign manifest: %v\n", err)
			os.Exit(1)
		}
	}
	if err := manifest.Save(m, *out); err != nil {
		fmt.Fprintf(os.Stderr, "save manifest: %v\n", err)
		os.Exit(1)
	}
}
