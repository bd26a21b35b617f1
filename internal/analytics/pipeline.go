package analytics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"agenthub/internal/extract"
	"agenthub/internal/llm"
	"agenthub/internal/tools"
)

// ErrSafetyRejected means the safety filter blocked report synthesis.
// The query must be rephrased; retrying as-is will fail the same way.
var ErrSafetyRejected = errors.New("analytics: safety filter triggered, please rephrase the query")

// defaultWarehouseSQL feeds the pipeline when the caller asks for
// internal data without supplying a query of their own.
const defaultWarehouseSQL = "SELECT * FROM company_data.sales_trends"

const noDataFound = "No data found."

// rawDataLimit caps the raw excerpt included in a report.
const rawDataLimit = 1000

// Report is the finished output of one pipeline run.
type Report struct {
	Summary  string
	GraphURL string
	CSVData  string
	RawData  string
	Intent   Intent
}

// Options tweak a single pipeline run.
type Options struct {
	// UseInternalData forces a warehouse query even when the parsed
	// intent does not ask for one.
	UseInternalData bool
	// CustomSQL replaces the default warehouse query.
	CustomSQL string
}

// synthesis is the JSON shape the analyst model is asked to produce.
type synthesis struct {
	TextSummary     string `json:"text_summary"`
	CSVData         string `json:"csv_data"`
	PythonGraphCode string `json:"python_graph_code"`
}

// Pipeline wires the analyst model to its worker tools.
type Pipeline struct {
	gen       llm.Generator
	searcher  tools.WebSearcher
	warehouse tools.TabularQuerier
	runner    tools.CodeRunner
	blobs     tools.BlobStore
	workDir   string
	now       func() time.Time
	log       *zap.Logger
}

// NewPipeline builds a pipeline. workDir is where chart code runs and
// where rendered chart files are picked up from; it must match the
// runner's working directory.
func NewPipeline(gen llm.Generator, searcher tools.WebSearcher, warehouse tools.TabularQuerier, runner tools.CodeRunner, blobs tools.BlobStore, workDir string, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		gen:       gen,
		searcher:  searcher,
		warehouse: warehouse,
		runner:    runner,
		blobs:     blobs,
		workDir:   workDir,
		now:       time.Now,
		log:       log,
	}
}

// Analyze runs the full pipeline for one query: parse intent, gather
// data, synthesize the report, render and publish a chart when the
// model produced plotting code.
func (p *Pipeline) Analyze(ctx context.Context, query string, opts Options) (*Report, error) {
	p.log.Info("starting analytics pipeline", zap.String("query", query))

	intent := parseIntent(ctx, p.gen, query, p.log)
	needsInternal := opts.UseInternalData || intent.NeedsInternalData

	data1, data2 := p.gather(ctx, query, intent, needsInternal, opts.CustomSQL)

	chartFile := fmt.Sprintf("temp_graph_%d.png", p.now().UnixNano())
	report, raw, err := p.synthesize(ctx, query, data1, data2, chartFile)
	if err != nil {
		return nil, err
	}
	if report == nil {
		// Synthesis text held no parseable JSON. Degrade to the raw
		// model text rather than discarding the run.
		return &Report{Summary: raw, RawData: excerpt(data1), Intent: intent}, nil
	}

	graphURL := ""
	if strings.Contains(report.PythonGraphCode, "import") {
		graphURL = p.renderChart(ctx, report.PythonGraphCode, chartFile)
	}

	return &Report{
		Summary:  report.TextSummary,
		GraphURL: graphURL,
		CSVData:  report.CSVData,
		RawData:  excerpt(data1),
		Intent:   intent,
	}, nil
}

// gather collects up to two data sources. Companies drive targeted
// searches; an internal-data request adds a warehouse pull. Tool
// failures turn into an inline placeholder so synthesis still runs.
func (p *Pipeline) gather(ctx context.Context, query string, intent Intent, needsInternal bool, customSQL string) (string, string) {
	data1, data2 := noDataFound, noDataFound

	err := func() error {
		if needsInternal {
			sqlQuery := customSQL
			if sqlQuery == "" {
				sqlQuery = defaultWarehouseSQL
			}
			out, err := p.warehouse.QueryCSV(ctx, sqlQuery)
			if err != nil {
				return err
			}
			data1 = out
			if len(intent.Companies) >= 1 {
				q := searchStrategy(ctx, p.gen, query, intent.Companies[0], p.log)
				out, err := p.searcher.Search(ctx, q)
				if err != nil {
					return err
				}
				data2 = out
			}
			return nil
		}

		switch {
		case len(intent.Companies) >= 2:
			q1 := searchStrategy(ctx, p.gen, query, intent.Companies[0], p.log)
			out1, err := p.searcher.Search(ctx, q1)
			if err != nil {
				return err
			}
			data1 = out1
			q2 := searchStrategy(ctx, p.gen, query, intent.Companies[1], p.log)
			out2, err := p.searcher.Search(ctx, q2)
			if err != nil {
				return err
			}
			data2 = out2
		case len(intent.Companies) == 1:
			q := searchStrategy(ctx, p.gen, query, intent.Companies[0], p.log)
			out, err := p.searcher.Search(ctx, q)
			if err != nil {
				return err
			}
			data1 = out
		default:
			out, err := p.searcher.Search(ctx, query)
			if err != nil {
				return err
			}
			data1 = out
		}
		return nil
	}()
	if err != nil {
		p.log.Error("data gathering failed", zap.Error(err))
		data1 = fmt.Sprintf("Error gathering data: %v", err)
	}

	return data1, data2
}

func synthesisPrompt(query, data1, data2, chartFile string) string {
	return fmt.Sprintf(
		"You are a world-class data analyst. Perform analysis.\n"+
			"USER QUERY: %q\n"+
			"DATA SOURCE 1:\n%s\n"+
			"DATA SOURCE 2:\n%s\n"+
			"TASKS:\n"+
			"1. Summarize findings quantitatively in Markdown.\n"+
			"2. EXTRACT the key data points into a clean CSV string (headers and rows) suitable for Excel.\n"+
			"3. Write Python code (pandas/matplotlib) to plot charts IF data allows. Save as '%s'. Do NOT add data labels.\n"+
			"Respond JSON: { \"text_summary\": \"...\", \"csv_data\": \"...\", \"python_graph_code\": \"...\" }",
		query, data1, data2, chartFile)
}

// synthesize returns a nil synthesis with the raw model text when the
// model replied but its output held no JSON object; the caller
// degrades to the raw text.
func (p *Pipeline) synthesize(ctx context.Context, query, data1, data2, chartFile string) (*synthesis, string, error) {
	out, err := p.gen.CompleteWithSystem(ctx, analystInstruction, synthesisPrompt(query, data1, data2, chartFile))
	if err != nil {
		if errors.Is(err, llm.ErrSafetyBlocked) {
			return nil, "", fmt.Errorf("%w: %v", ErrSafetyRejected, err)
		}
		return nil, "", fmt.Errorf("analytics: synthesis: %w", err)
	}

	var s synthesis
	if err := extract.Object(out, &s); err != nil {
		p.log.Error("synthesis output held no JSON", zap.Error(err))
		return nil, out, nil
	}
	return &s, out, nil
}

func (p *Pipeline) renderChart(ctx context.Context, code, chartFile string) string {
	// A script can save the figure and still exit non-zero, so the exec
	// result only gets logged; what decides is whether the file exists.
	if _, err := p.runner.Run(ctx, code); err != nil {
		p.log.Warn("chart code execution failed", zap.Error(err))
	}

	localPath := filepath.Join(p.workDir, chartFile)
	if _, err := os.Stat(localPath); err != nil {
		p.log.Warn("chart code produced no file", zap.String("path", localPath))
		return ""
	}
	defer os.Remove(localPath)

	objectName := fmt.Sprintf("analytics_%d.png", p.now().UnixNano())
	url, err := p.blobs.Upload(ctx, localPath, objectName)
	if err != nil {
		p.log.Warn("chart upload failed", zap.Error(err))
		return ""
	}
	return url
}

func excerpt(s string) string {
	if len(s) <= rawDataLimit {
		return s
	}
	// Back off to a rune boundary so the cut never splits a multibyte
	// sequence.
	cut := rawDataLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
