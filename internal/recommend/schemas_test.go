package recommend

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sproutapp/sprout/internal/schema"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad test fixture: %v", err)
	}
	return v
}

func validFeatures(n, criteria int) string {
	var items []string
	for range n {
		var crit []string
		for range criteria {
			crit = append(crit, `"criterion"`)
		}
		items = append(items, `{"title":"t","user_story":"As a user, I want x so that y.","acceptance_criteria":[`+strings.Join(crit, ",")+`]}`)
	}
	return `{"features":[` + strings.Join(items, ",") + `]}`
}

func TestFeaturesSchemaCounts(t *testing.T) {
	s := featuresSchema()

	tests := []struct {
		name     string
		raw      string
		wantPath string
	}{
		{"exactly three with two criteria passes", validFeatures(3, 2), ""},
		{"two features rejected", validFeatures(2, 2), "features"},
		{"four features rejected", validFeatures(4, 2), "features"},
		{"one criterion rejected", validFeatures(3, 1), "features[0].acceptance_criteria"},
		{"three criteria rejected", validFeatures(3, 3), "features[0].acceptance_criteria"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := s.Validate(decode(t, tt.raw))
			if tt.wantPath == "" {
				if len(errs) != 0 {
					t.Fatalf("Validate() = %v, want no errors", errs)
				}
				return
			}
			if len(errs) == 0 {
				t.Fatal("Validate() passed, want errors")
			}
			if errs[0].Path != tt.wantPath {
				t.Errorf("error path = %q, want %q", errs[0].Path, tt.wantPath)
			}
		})
	}
}

func TestFeaturesSchemaUserStoryShape(t *testing.T) {
	s := featuresSchema()

	payload := func(story string) string {
		item := `{"title":"t","user_story":` + story + `,"acceptance_criteria":["a","b"]}`
		return `{"features":[` + item + `,` + item + `,` + item + `]}`
	}

	tests := []struct {
		name  string
		story string
		ok    bool
	}{
		{"canonical narrative passes", `"As a commuter, I want route alerts so that I leave on time."`, true},
		{"an-article variant passes", `"As an admin, I want audit logs so that changes are traceable."`, true},
		{"free prose rejected", `"Users can see their route alerts."`, false},
		{"missing so-that clause rejected", `"As a commuter, I want route alerts."`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := s.Validate(decode(t, payload(tt.story)))
			if tt.ok && len(errs) != 0 {
				t.Fatalf("Validate() = %v, want no errors", errs)
			}
			if !tt.ok {
				if len(errs) == 0 {
					t.Fatal("Validate() passed, want errors")
				}
				if errs[0].Path != "features[0].user_story" {
					t.Errorf("error path = %q, want features[0].user_story", errs[0].Path)
				}
			}
		})
	}
}

func TestFrameworksSchemaToolPattern(t *testing.T) {
	s := frameworksSchema()

	entry := func(tools string) string {
		item := `{"title":"Stack","description":"Fits well.","tools":` + tools + `}`
		return `{"frameworks":[` + item + `,` + item + `,` + item + `]}`
	}

	tests := []struct {
		name  string
		tools string
		ok    bool
	}{
		{"lowercase single words pass", `["react","postgres","redis"]`, true},
		{"digits allowed", `["s3","ec2"]`, true},
		{"uppercase rejected", `["React"]`, false},
		{"punctuation rejected", `["node.js"]`, false},
		{"spaces rejected", `["visual studio"]`, false},
		{"empty tool rejected", `[""]`, false},
		{"empty list rejected", `[]`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := s.Validate(decode(t, entry(tt.tools)))
			if tt.ok && len(errs) != 0 {
				t.Fatalf("Validate() = %v, want no errors", errs)
			}
			if !tt.ok && len(errs) == 0 {
				t.Fatal("Validate() passed, want errors")
			}
		})
	}
}

func TestDraftSchema(t *testing.T) {
	s := draftSchema()

	t.Run("valid draft passes", func(t *testing.T) {
		raw := `{"title":"Trail Buddy","description":"Matches hikers with trails.","features":["a","b","c"]}`
		if errs := s.Validate(decode(t, raw)); len(errs) != 0 {
			t.Fatalf("Validate() = %v, want no errors", errs)
		}
	})

	t.Run("missing title reported by path", func(t *testing.T) {
		raw := `{"description":"d","features":["a","b","c"]}`
		errs := s.Validate(decode(t, raw))
		if len(errs) != 1 || errs[0].Path != "title" {
			t.Fatalf("Validate() = %v, want single error at title", errs)
		}
	})

	t.Run("two headline features rejected", func(t *testing.T) {
		raw := `{"title":"T","description":"d","features":["a","b"]}`
		errs := s.Validate(decode(t, raw))
		if len(errs) == 0 || errs[0].Path != "features" {
			t.Fatalf("Validate() = %v, want error at features", errs)
		}
	})
}

func TestFrameworksSchemaGuidesToolMentions(t *testing.T) {
	text := frameworksSchema().Instructions()
	if !strings.Contains(text, "at most once") {
		t.Error("framework description guidance should cap tool mentions at one each")
	}
}

func TestSchemasRenderInstructions(t *testing.T) {
	for _, s := range []schema.Schema{draftSchema(), featuresSchema(), frameworksSchema(), refineSchema()} {
		text := s.Instructions()
		if !strings.Contains(text, "JSON Schema") {
			t.Errorf("instructions for %s should embed the JSON Schema", s.Name)
		}
		if !strings.Contains(text, s.Description) {
			t.Errorf("instructions for %s should carry the schema description", s.Name)
		}
	}
}
