package terraform

import (
	"testing"

	tfjson "github.com/hashicorp/terraform-json"
	"github.com/stretchr/testify/assert"
)

func change(actions ...tfjson.Action) *tfjson.ResourceChange {
	return &tfjson.ResourceChange{
		Change: &tfjson.Change{Actions: tfjson.Actions(actions)},
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		plan *tfjson.Plan
		want Summary
	}{
		{name: "nil plan", plan: nil, want: Summary{}},
		{
			name: "no changes",
			plan: &tfjson.Plan{ResourceChanges: []*tfjson.ResourceChange{
				change(tfjson.ActionNoop),
			}},
			want: Summary{},
		},
		{
			name: "create and update",
			plan: &tfjson.Plan{ResourceChanges: []*tfjson.ResourceChange{
				change(tfjson.ActionCreate),
				change(tfjson.ActionCreate),
				change(tfjson.ActionUpdate),
			}},
			want: Summary{Add: 2, Change: 1},
		},
		{
			name: "replace counts as add plus destroy",
			plan: &tfjson.Plan{ResourceChanges: []*tfjson.ResourceChange{
				change(tfjson.ActionDelete, tfjson.ActionCreate),
			}},
			want: Summary{Add: 1, Destroy: 1, Replace: 1},
		},
		{
			name: "delete only",
			plan: &tfjson.Plan{ResourceChanges: []*tfjson.ResourceChange{
				change(tfjson.ActionDelete),
			}},
			want: Summary{Destroy: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.plan))
		})
	}
}

func TestSummaryString(t *testing.T) {
	assert.Equal(t, "No changes.", Summary{}.String())
	assert.Equal(t,
		"Plan: 1 to add, 2 to change, 1 to destroy (1 replaced).",
		Summary{Add: 1, Change: 2, Destroy: 1, Replace: 1}.String())
}

func TestServiceImage(t *testing.T) {
	attrs := map[string]interface{}{
		"template": []interface{}{
			map[string]interface{}{
				"containers": []interface{}{
					map[string]interface{}{
						"image": "europe-west1-docker.pkg.dev/p/mcp/docschat:v3",
					},
				},
			},
		},
	}

	state := &tfjson.State{
		Values: &tfjson.StateValues{
			RootModule: &tfjson.StateModule{
				Resources: []*tfjson.StateResource{
					{Type: "google_storage_bucket", AttributeValues: map[string]interface{}{}},
					{Type: "google_cloud_run_v2_service", AttributeValues: attrs},
				},
			},
		},
	}

	assert.Equal(t, "europe-west1-docker.pkg.dev/p/mcp/docschat:v3", ServiceImage(state))
}

func TestServiceImageNested(t *testing.T) {
	attrs := map[string]interface{}{
		"template": []interface{}{
			map[string]interface{}{
				"containers": []interface{}{
					map[string]interface{}{"image": "img:v1"},
				},
			},
		},
	}

	state := &tfjson.State{
		Values: &tfjson.StateValues{
			RootModule: &tfjson.StateModule{
				ChildModules: []*tfjson.StateModule{
					{Resources: []*tfjson.StateResource{
						{Type: "google_cloud_run_v2_service", AttributeValues: attrs},
					}},
				},
			},
		},
	}

	assert.Equal(t, "img:v1", ServiceImage(state))
}

func TestServiceImageAbsent(t *testing.T) {
	assert.Equal(t, "", ServiceImage(nil))
	assert.Equal(t, "", ServiceImage(&tfjson.State{}))
	assert.Equal(t, "", ServiceImage(&tfjson.State{
		Values: &tfjson.StateValues{RootModule: &tfjson.StateModule{}},
	}))
}
