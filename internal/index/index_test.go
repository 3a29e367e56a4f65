package index

import (
	"strings"
	"testing"
)

func TestRender_ListsUnitsInOrder(t *testing.T) {
	html := Render([]Unit{
		{Name: "core", Kind: "lib", Path: "core"},
		{Name: "cli", Kind: "bin", Path: "cli"},
	})

	coreIdx := strings.Index(html, ">core<")
	cliIdx := strings.Index(html, ">cli<")
	if coreIdx == -1 || cliIdx == -1 {
		t.Fatalf("Render() missing unit names, got: %s", html)
	}
	if coreIdx > cliIdx {
		t.Errorf("Render() order: core at %d, cli at %d, want core first", coreIdx, cliIdx)
	}

	if !strings.Contains(html, `href="./core/index.html"`) {
		t.Errorf("Render() missing link to core docs, got: %s", html)
	}
}

func TestRender_PreservesInputOrder(t *testing.T) {
	// input is intentionally not sorted
	html := Render([]Unit{
		{Name: "zeta", Kind: "lib", Path: "zeta"},
		{Name: "alpha", Kind: "lib", Path: "alpha"},
	})

	if strings.Index(html, ">zeta<") > strings.Index(html, ">alpha<") {
		t.Error("Render() reordered units, want input order")
	}
}

func TestRender_Deterministic(t *testing.T) {
	units := []Unit{
		{Name: "core", Kind: "lib", Path: "core"},
		{Name: "cli", Kind: "bin", Path: "cli"},
		{Name: "macros", Kind: "lib", Path: "macros"},
	}

	first := Render(units)
	for i := 0; i < 10; i++ {
		if got := Render(units); got != first {
			t.Fatalf("Render() call %d differs from first render", i)
		}
	}
}

func TestRender_EscapesNames(t *testing.T) {
	html := Render([]Unit{
		{Name: "<script>alert(1)</script>", Kind: "lib", Path: "x"},
	})

	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("Render() did not escape unit name")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Errorf("Render() expected escaped name, got: %s", html)
	}
}

func TestRender_Empty(t *testing.T) {
	html := Render(nil)

	if !strings.Contains(html, "No documented units.") {
		t.Errorf("Render(nil) should show empty message, got: %s", html)
	}
	if !strings.HasPrefix(html, "<!DOCTYPE html>") {
		t.Errorf("Render(nil) should produce a full page, got: %s", html)
	}
}
