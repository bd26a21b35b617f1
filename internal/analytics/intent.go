// Package analytics implements the market research pipeline: intent
// parsing, data gathering from web search and the warehouse, report
// synthesis, chart rendering, and publication of the rendered chart.
package analytics

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"agenthub/internal/extract"
	"agenthub/internal/llm"
)

const analystInstruction = "You are an Expert Data Analyst. Your primary goal is to output structured, quantitative data rather than descriptive text.\n" +
	"1. **DATA OVER TEXT:** Prioritize Markdown tables, bulleted lists of metrics, and specific figures over paragraphs.\n" +
	"2. **STRICT QUANTIFICATION:** Never use qualitative terms (e.g., 'high growth') without the backing number (e.g., '25% YoY growth').\n" +
	"3. **TABULAR FORMAT:** Whenever comparing two or more entities/periods, you MUST use a Markdown table.\n" +
	"4. **KEY METRICS:** Isolate key performance indicators (KPIs) at the top of your response.\n" +
	"5. **CONCISE ANALYSIS:** Explanations should be brief footnotes to the data, not long narratives.\n" +
	"6. **CODING RULES:**\n" +
	"   - You MUST explicitly `import pandas as pd` and `import numpy as np` if used.\n" +
	"   - **NEVER use `pd.np`.** It is deprecated. Always use `np` directly (e.g., `np.nan`, `np.random`).\n" +
	"   - **STYLE RULE:** Use `plt.style.use('ggplot')` or `plt.style.use('default')`.\n" +
	"   - Ensure all graphs use standard matplotlib styles.\n"

// Intent is what the parser pulls out of a free-form analytics query.
type Intent struct {
	Companies         []string `json:"companies"`
	ExportFormat      string   `json:"export_format"`
	NeedsInternalData bool     `json:"needs_internal_data"`
}

// zeroIntent is the explicit no-op intent: no companies, no export, no
// internal data.
func zeroIntent() Intent {
	return Intent{Companies: []string{}, ExportFormat: "none"}
}

// parseIntent extracts the companies, export format, and internal-data
// flag from the query. Any model or parse failure yields the zero
// intent so the pipeline degrades to a plain web search instead of
// failing.
func parseIntent(ctx context.Context, gen llm.Generator, query string, log *zap.Logger) Intent {
	prompt := fmt.Sprintf(
		"Analyze this user query: %q\n"+
			"Extract the following fields into a JSON object:\n"+
			"1. 'companies': A list of strings of company names mentioned.\n"+
			"2. 'export_format': One of ['docs', 'sheets', 'none'].\n"+
			"3. 'needs_internal_data': Boolean. True if user implies using internal/SQL data.\n"+
			"Output ONLY the JSON.",
		query)

	out, err := gen.CompleteWithSystem(ctx, analystInstruction, prompt)
	if err != nil {
		log.Warn("intent parse generation failed", zap.Error(err))
		return zeroIntent()
	}

	intent := zeroIntent()
	if err := extract.Object(out, &intent); err != nil {
		log.Warn("intent parse extraction failed", zap.Error(err))
		return zeroIntent()
	}
	return intent
}

// searchStrategy asks the model for the single best search query for an
// entity. Falls back to a generic financial-data query on failure.
func searchStrategy(ctx context.Context, gen llm.Generator, query, entity string, log *zap.Logger) string {
	prompt := fmt.Sprintf(
		"User Query: %q\n"+
			"Target Entity: %q\n"+
			"Generate the SINGLE best Google Search query (max 10 words) to find data/strategy for this entity.",
		query, entity)

	out, err := gen.CompleteWithSystem(ctx, analystInstruction, prompt)
	if err != nil {
		log.Warn("search strategy generation failed", zap.Error(err), zap.String("entity", entity))
		return fmt.Sprintf("%s financial data 2024", entity)
	}
	return strings.ReplaceAll(strings.TrimSpace(out), `"`, "")
}
