// Package orchestrator classifies incoming queries, gates them by
// role, and dispatches them to the specialist agents.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"agenthub/internal/agents"
	"agenthub/internal/analytics"
	"agenthub/internal/llm"
)

// User identifies the caller for the permission gate and for the
// identity context injected into agent prompts.
type User struct {
	Name  string
	Email string
	Role  Role
}

// AnalyticsRunner runs the market research pipeline.
type AnalyticsRunner interface {
	Analyze(ctx context.Context, query string, opts analytics.Options) (*analytics.Report, error)
}

// Orchestrator routes queries to the right agent.
type Orchestrator struct {
	gen       llm.Generator
	support   agents.Agent
	hr        agents.Agent
	marketing agents.Agent
	admin     agents.Agent
	general   *agents.GeneralAgent
	analytics AnalyticsRunner
	log       *zap.Logger
}

// Deps collects everything the orchestrator dispatches to.
type Deps struct {
	Generator llm.Generator
	Support   agents.Agent
	HR        agents.Agent
	Marketing agents.Agent
	Admin     agents.Agent
	General   *agents.GeneralAgent
	Analytics AnalyticsRunner
}

func New(deps Deps, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		gen:       deps.Generator,
		support:   deps.Support,
		hr:        deps.HR,
		marketing: deps.Marketing,
		admin:     deps.Admin,
		general:   deps.General,
		analytics: deps.Analytics,
		log:       log,
	}
}

// classify asks the model for the single category the query belongs to.
func (o *Orchestrator) classify(ctx context.Context, query string) (Intent, error) {
	prompt := fmt.Sprintf(
		"Classify the query into: HR_ASSISTANT, CUSTOMER_SUPPORT, MARKETING, ANALYTICS, ADMIN, GENERAL_CHAT.\n"+
			"Rules: 'sales', 'revenue', 'trends', 'competitor', 'compare' -> ANALYTICS.\n"+
			"Query: '%s'\nResponse (Category only):",
		query)

	out, err := o.gen.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("orchestrator: classify: %w", err)
	}
	return Intent(strings.ToUpper(strings.TrimSpace(out))), nil
}

// Route classifies the query, checks the caller may reach that intent,
// and dispatches to the owning agent. An *AccessDeniedError is
// returned when the gate rejects; everything the agent needs to know
// about the caller travels in an identity header prefixed to the query.
func (o *Orchestrator) Route(ctx context.Context, user User, query string) (string, error) {
	intent, err := o.classify(ctx, query)
	if err != nil {
		return "", err
	}
	o.log.Info("query classified", zap.String("intent", string(intent)), zap.String("role", string(user.Role)))

	if !Allowed(user.Role, intent) {
		return "", &AccessDeniedError{Role: user.Role, Intent: intent}
	}

	header := fmt.Sprintf("USER CONTEXT: Name='%s', Email='%s', Role='%s'\n\n", user.Name, user.Email, user.Role)

	switch intent {
	case IntentAnalytics:
		report, err := o.analytics.Analyze(ctx, query, analytics.Options{})
		if err != nil {
			return "", err
		}
		text := report.Summary + "\n\n"
		if report.GraphURL != "" {
			text += fmt.Sprintf("**Graph:** ![Graph](%s)", report.GraphURL)
		}
		return text, nil
	case IntentCustomerSupport:
		return o.support.Respond(ctx, header+query)
	case IntentHRAssistant:
		return o.hr.Respond(ctx, header+query)
	case IntentMarketing:
		return o.marketing.Respond(ctx, header+query)
	case IntentAdmin:
		// Admin instructions run verbatim, without identity context.
		return o.admin.Respond(ctx, query)
	default:
		return o.general.RespondWithContext(ctx, header, query)
	}
}
