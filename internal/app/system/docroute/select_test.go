package docroute

import (
	"testing"

	"github.com/dalemusser/docuverse/internal/domain/models"
)

func TestSelectPage(t *testing.T) {
	intro := page("intro", 0, nil)
	guide := page("guide", 1, nil)
	api := page("api", 2, nil)
	guideSetup := page("setup", 0, &guide)
	apiSetup := page("setup", 0, &api)
	guide.IsFolder = true

	roots := BuildTree([]models.Page{intro, guide, api, guideSetup, apiSetup}, "")

	tests := []struct {
		name   string
		path   []string
		wantID string
		wantOK bool
	}{
		{"empty path selects first root", nil, intro.ID.Hex(), true},
		{"root slug", []string{"intro"}, intro.ID.Hex(), true},
		{"full path disambiguates", []string{"api", "setup"}, apiSetup.ID.Hex(), true},
		{"full path under guide", []string{"guide", "setup"}, guideSetup.ID.Hex(), true},
		{"leaf only falls back to first match", []string{"setup"}, guideSetup.ID.Hex(), true},
		{"wrong folder falls back to leaf", []string{"nope", "setup"}, guideSetup.ID.Hex(), true},
		{"unknown", []string{"missing"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := SelectPage(roots, tt.path)
			if ok != tt.wantOK {
				t.Fatalf("SelectPage(%v) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if ok && n.ID.Hex() != tt.wantID {
				t.Errorf("SelectPage(%v) = %s (%s), want %s", tt.path, n.ID.Hex(), n.FullPath, tt.wantID)
			}
		})
	}
}

func TestSelectPage_EmptyTree(t *testing.T) {
	if _, ok := SelectPage(nil, nil); ok {
		t.Error("SelectPage(nil, nil) ok = true, want false")
	}
}

func TestFirstPage(t *testing.T) {
	folder := page("folder", 0, nil)
	folder.IsFolder = true
	child := page("child", 0, &folder)
	roots := BuildTree([]models.Page{folder, child}, "")

	if got := FirstPage(roots); got == nil || got.ID != child.ID {
		t.Errorf("FirstPage() = %v, want child", got)
	}
}
