// Package chains runs the two-stage prompt chains behind the planning
// tools. Stage one produces an intermediate analysis from the codebase
// report and the user's request; stage two receives that analysis as
// context and produces the final answer.
package chains

import (
	"context"
	"fmt"
)

// Querier sends one system/user turn to a model and returns its answer.
// *llm.Engine satisfies it.
type Querier interface {
	Query(ctx context.Context, model, system, user string) (string, error)
}

// Planner runs the feature, bug-fix and explanation chains.
type Planner struct {
	q     Querier
	model string
}

// NewPlanner creates a Planner. An empty model lets the Querier pick
// its default.
func NewPlanner(q Querier, model string) *Planner {
	return &Planner{q: q, model: model}
}

// stage is one half of a chain: a system prompt and a user template.
type stage struct {
	system string
	user   string
}

type chain struct {
	first  stage
	second stage
}

var (
	featureChain = chain{
		first:  stage{system: featurePlanSystem, user: featurePlanUser},
		second: stage{system: featureDetailSystem, user: featureDetailUser},
	}
	bugFixChain = chain{
		first:  stage{system: bugAnalysisSystem, user: bugAnalysisUser},
		second: stage{system: bugFixSystem, user: bugFixUser},
	}
	explainChain = chain{
		first:  stage{system: explainSurveySystem, user: explainSurveyUser},
		second: stage{system: explainDetailSystem, user: explainDetailUser},
	}
)

// FeaturePlan produces a high-level plan and then a detailed
// implementation plan for featurePrompt.
func (p *Planner) FeaturePlan(ctx context.Context, report, featurePrompt string) (string, error) {
	return p.run(ctx, featureChain, report, featurePrompt)
}

// BugFixPlan produces a root-cause analysis and then a remediation plan
// for bugDescription.
func (p *Planner) BugFixPlan(ctx context.Context, report, bugDescription string) (string, error) {
	return p.run(ctx, bugFixChain, report, bugDescription)
}

// Explain identifies the components relevant to query and then produces
// a technical explanation of them.
func (p *Planner) Explain(ctx context.Context, report, query string) (string, error) {
	return p.run(ctx, explainChain, report, query)
}

// run executes both stages strictly in order. A stage-one failure stops
// the chain before stage two is sent.
func (p *Planner) run(ctx context.Context, c chain, report, request string) (string, error) {
	intermediate, err := p.q.Query(ctx, p.model, c.first.system, fmt.Sprintf(c.first.user, report, request))
	if err != nil {
		return "", fmt.Errorf("stage 1: %w", err)
	}

	final, err := p.q.Query(ctx, p.model, c.second.system, fmt.Sprintf(c.second.user, report, request, intermediate))
	if err != nil {
		return "", fmt.Errorf("stage 2: %w", err)
	}
	return final, nil
}
