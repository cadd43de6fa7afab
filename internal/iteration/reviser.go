package iteration

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/ats-tuner/internal/ai"
	"github.com/spigell/ats-tuner/internal/ai/prompts"
	"github.com/spigell/ats-tuner/internal/resume"
	"github.com/spigell/ats-tuner/internal/scoring"
)

// AgentReviser asks the reviser agent for a new candidate, passing the
// weakest categories of the current evaluation as feedback.
type AgentReviser struct {
	agent     ai.Agent
	validator *resume.Validator
	goals     []string
}

// NewAgentReviser wraps agent. A nil validator skips schema checks.
func NewAgentReviser(agent ai.Agent, validator *resume.Validator, goals []string) *AgentReviser {
	return &AgentReviser{agent: agent, validator: validator, goals: goals}
}

func (r *AgentReviser) Revise(ctx context.Context, doc resume.Document, ev scoring.Evaluation, target *scoring.Target) (resume.Document, error) {
	prompt, err := prompts.Revise(doc, targetText(target), scoring.Feedback(ev.Reports()...), r.goals)
	if err != nil {
		return nil, fmt.Errorf("build revision prompt: %w", err)
	}

	out, err := r.agent.GenerateStructured(ctx, prompt)
	if err != nil {
		return nil, err
	}

	revised := resume.Document(out)
	if r.validator != nil {
		if err := r.validator.Validate(revised); err != nil {
			return nil, err
		}
	}
	return revised, nil
}

func targetText(target *scoring.Target) string {
	if target == nil {
		return ""
	}
	var parts []string
	for _, p := range []string{target.Title, target.Company, target.Description} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}
