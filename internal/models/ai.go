package models

import "github.com/absmartly/domeditor/internal/common"

// AIAction is the verb an AI generation result carries, telling the editor how
// to combine the generated changes with the ones already tracked. The set is
// open-ended string interop with the external provider, so application keeps
// an explicit error default for unrecognized values.
type AIAction string

const (
	AIActionAppend          AIAction = "append"
	AIActionReplaceAll      AIAction = "replace_all"
	AIActionReplaceSpecific AIAction = "replace_specific"
	AIActionRemoveSpecific  AIAction = "remove_specific"
	AIActionNone            AIAction = "none"
)

// AIResult is the black-box response of the AI change-generation provider.
type AIResult struct {
	DOMChanges      []Change `json:"domChanges"`
	Response        string   `json:"response"`
	Action          AIAction `json:"action"`
	TargetSelectors []string `json:"targetSelectors,omitempty"`
}

// ApplyAIAction combines prior tracked changes with an AI result according to
// its action verb and returns the resulting change list. The *_specific verbs
// require non-empty TargetSelectors; an unknown verb is a hard error so
// integration bugs surface instead of being silently ignored.
func ApplyAIAction(prior []Change, result AIResult) ([]Change, error) {
	switch result.Action {
	case AIActionAppend:
		out := make([]Change, 0, len(prior)+len(result.DOMChanges))
		for _, c := range prior {
			out = append(out, c.Clone())
		}
		for _, c := range result.DOMChanges {
			out = append(out, c.Clone())
		}
		return out, nil

	case AIActionReplaceAll:
		out := make([]Change, 0, len(result.DOMChanges))
		for _, c := range result.DOMChanges {
			out = append(out, c.Clone())
		}
		return out, nil

	case AIActionReplaceSpecific, AIActionRemoveSpecific:
		if len(result.TargetSelectors) == 0 {
			return nil, common.NewError("AI action %q requires non-empty targetSelectors", result.Action)
		}
		targets := make(map[string]struct{}, len(result.TargetSelectors))
		for _, sel := range result.TargetSelectors {
			targets[sel] = struct{}{}
		}

		out := make([]Change, 0, len(prior)+len(result.DOMChanges))
		for _, c := range prior {
			if _, hit := targets[c.Selector]; !hit {
				out = append(out, c.Clone())
			}
		}
		if result.Action == AIActionReplaceSpecific {
			for _, c := range result.DOMChanges {
				out = append(out, c.Clone())
			}
		}
		return out, nil

	case AIActionNone:
		// Any DOMChanges in the result are ignored by contract.
		out := make([]Change, 0, len(prior))
		for _, c := range prior {
			out = append(out, c.Clone())
		}
		return out, nil

	default:
		return nil, common.NewError("unrecognized AI action %q", result.Action)
	}
}
