package terraform

import (
	"fmt"

	tfjson "github.com/hashicorp/terraform-json"
)

// Summary counts pending resource changes in a plan.
type Summary struct {
	Add     int
	Change  int
	Destroy int
	Replace int
}

// Empty reports whether the plan contains no changes.
func (s Summary) Empty() bool {
	return s.Add == 0 && s.Change == 0 && s.Destroy == 0 && s.Replace == 0
}

// String formats the summary the way terraform prints its own plan
// footer.
func (s Summary) String() string {
	if s.Empty() {
		return "No changes."
	}
	return fmt.Sprintf("Plan: %d to add, %d to change, %d to destroy (%d replaced).",
		s.Add, s.Change, s.Destroy, s.Replace)
}

// Summarize counts the resource change actions in a parsed plan.
func Summarize(plan *tfjson.Plan) Summary {
	var s Summary
	if plan == nil {
		return s
	}
	for _, rc := range plan.ResourceChanges {
		if rc.Change == nil {
			continue
		}
		actions := rc.Change.Actions
		switch {
		case actions.Replace():
			s.Replace++
			s.Add++
			s.Destroy++
		case actions.Create():
			s.Add++
		case actions.Update():
			s.Change++
		case actions.Delete():
			s.Destroy++
		}
	}
	return s
}

// ServiceImage digs the deployed container image out of state. Returns
// "" when the Cloud Run service is not in state yet.
func ServiceImage(state *tfjson.State) string {
	if state == nil || state.Values == nil || state.Values.RootModule == nil {
		return ""
	}
	return findServiceImage(state.Values.RootModule)
}

func findServiceImage(mod *tfjson.StateModule) string {
	for _, res := range mod.Resources {
		if res.Type != "google_cloud_run_v2_service" {
			continue
		}
		if img := imageFromAttributes(res.AttributeValues); img != "" {
			return img
		}
	}
	for _, child := range mod.ChildModules {
		if img := findServiceImage(child); img != "" {
			return img
		}
	}
	return ""
}

// imageFromAttributes walks template.containers[0].image in the Cloud
// Run resource attributes.
func imageFromAttributes(attrs map[string]interface{}) string {
	templates, ok := attrs["template"].([]interface{})
	if !ok || len(templates) == 0 {
		return ""
	}
	template, ok := templates[0].(map[string]interface{})
	if !ok {
		return ""
	}
	containers, ok := template["containers"].([]interface{})
	if !ok || len(containers) == 0 {
		return ""
	}
	container, ok := containers[0].(map[string]interface{})
	if !ok {
		return ""
	}
	img, _ := container["image"].(string)
	return img
}
