// Package validator implements spec.md §4.6's Step Validator (C6): an
// explicit per-step-type required-field rule set, evaluated against a
// Step's configuration before C7 dispatches it.
package validator

import (
	"fmt"
	"strings"

	"github.com/smilemakc/outreachctl/pkg/models"
)

// Result is C6's {valid, error?, missingFields?} return shape.
type Result struct {
	Valid         bool
	Error         string
	MissingFields []string
}

// nonEmpty reports whether s is non-empty after trimming whitespace.
func nonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// Validate applies the required-field rule for step.Type to step.Config.
func Validate(step *models.Step) Result {
	cfg := step.Config

	switch step.Type {
	case models.StepLinkedInConnect, models.StepLinkedInVisit, models.StepLinkedInFollow:
		return Result{Valid: true}

	case models.StepLinkedInMessage:
		return requireFields(field{"message", nonEmpty(cfg.Message)})

	case models.StepEmailSend, models.StepEmailFollowup:
		return requireFields(
			field{"subject", nonEmpty(cfg.Subject)},
			field{"body", nonEmpty(cfg.Body)},
		)

	case models.StepWhatsAppSend:
		return requireFields(field{"whatsappMessage", nonEmpty(cfg.WhatsAppMessage)})

	case models.StepInstagramDM:
		return requireFields(
			field{"instagramUsername", nonEmpty(cfg.InstagramUsername)},
			field{"instagramDmMessage", nonEmpty(cfg.InstagramDmMessage)},
		)

	case models.StepVoiceAgentCall:
		missing := []string{}
		if !nonEmpty(cfg.VoiceAgentID) {
			missing = append(missing, "voiceAgentId")
		}
		if !nonEmpty(cfg.VoiceContext) && !nonEmpty(cfg.AddedContext) {
			missing = append(missing, "voiceContext")
		}
		if len(missing) > 0 {
			return Result{Valid: false, Error: fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")), MissingFields: missing}
		}
		return Result{Valid: true}

	case models.StepDelay:
		if cfg.DelayDays <= 0 && cfg.DelayHours <= 0 && cfg.DelayMinutes <= 0 {
			return Result{Valid: false, Error: "delay step requires at least one of delayDays, delayHours, delayMinutes greater than zero"}
		}
		return Result{Valid: true}

	case models.StepCondition:
		switch cfg.ConditionType {
		case "connected", "replied", "opened":
			return Result{Valid: true}
		default:
			return Result{Valid: false, Error: fmt.Sprintf("condition step has invalid conditionType %q", cfg.ConditionType), MissingFields: []string{"conditionType"}}
		}

	case models.StepLeadGeneration:
		hasFilters := cfg.LeadGenerationFilters != nil &&
			(len(cfg.LeadGenerationFilters.Roles) > 0 ||
				len(cfg.LeadGenerationFilters.Industries) > 0 ||
				nonEmpty(cfg.LeadGenerationFilters.Location))
		hasLimit := cfg.LeadGenerationLimit > 0
		if !hasFilters && !hasLimit {
			return Result{Valid: false, Error: "lead_generation step requires either leadGenerationFilters or leadGenerationLimit"}
		}
		return Result{Valid: true}

	case models.StepStart, models.StepEnd:
		return Result{Valid: true}

	default:
		return Result{Valid: false, Error: fmt.Sprintf("unknown step type %q", step.Type)}
	}
}

// field pairs a config field name with whether it is present.
type field struct {
	name    string
	present bool
}

// requireFields checks an ordered set of named presence checks and builds
// the {valid, error, missingFields} result.
func requireFields(fields ...field) Result {
	var missing []string
	for _, f := range fields {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return Result{Valid: false, Error: fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")), MissingFields: missing}
	}
	return Result{Valid: true}
}
