package hierarchy_test

import (
	"fmt"
	"reflect"
	"testing"

	"pbc/dom"
	"pbc/hierarchy"
	"pbc/recognize"
	"pbc/style"
)

func build(t *testing.T, body string) *hierarchy.Hierarchy {
	t.Helper()
	page := fmt.Sprintf("<!DOCTYPE html><html><head></head><body>%s</body></html>", body)
	doc, err := dom.Parse([]byte(page), dom.Options{}, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b := hierarchy.NewBuilder(
		style.NewExtractor(1280, nil),
		recognize.NewRecognizer(nil, 0, 0, nil),
		nil, nil)
	return b.Build(doc)
}

func roles(n *hierarchy.Node) []hierarchy.Role {
	out := []hierarchy.Role{n.Role}
	for _, c := range n.Children {
		out = append(out, roles(c)...)
	}
	return out
}

func TestBuildRoles(t *testing.T) {
	h := build(t, `
	  <section>
	    <div class="container">
	      <div class="row" style="display: flex">
	        <div class="col-md-6"><button class="btn">One</button></div>
	        <div class="col-md-6"><button class="btn">Two</button></div>
	      </div>
	    </div>
	  </section>`)

	if len(h.Roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(h.Roots))
	}
	want := []hierarchy.Role{
		hierarchy.RoleSection, hierarchy.RoleContainer, hierarchy.RoleRow,
		hierarchy.RoleColumn, hierarchy.RoleWidget,
		hierarchy.RoleColumn, hierarchy.RoleWidget,
	}
	if got := roles(h.Roots[0]); !reflect.DeepEqual(got, want) {
		t.Errorf("roles = %v, want %v", got, want)
	}
}

func TestWidgetSubsumesSubtree(t *testing.T) {
	h := build(t, `<div class="card"><img src="a.png"><h3>Title</h3><p>Text body</p></div>`)

	if len(h.Roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(h.Roots))
	}
	root := h.Roots[0]
	if root.Role != hierarchy.RoleWidget {
		t.Fatalf("role = %s, want widget", root.Role)
	}
	if len(root.Children) != 0 {
		t.Errorf("widget node has %d children, want none", len(root.Children))
	}
	if h.Visited != 1 {
		t.Errorf("visited = %d, want 1 (descendants are subsumed)", h.Visited)
	}
	if root.Component.Result.Kind != recognize.KindCard {
		t.Errorf("kind = %s, want card", root.Component.Result.Kind)
	}
}

func TestSimplifyCollapsesWrapperChain(t *testing.T) {
	h := build(t, `<div class="wrapper"><div class="wrapper"><p>Text</p></div></div>`)

	h.Simplify()
	if len(h.Roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(h.Roots))
	}
	root := h.Roots[0]
	if root.Role != hierarchy.RoleContainer {
		t.Fatalf("role = %s, want container", root.Role)
	}
	if len(root.Children) != 1 || root.Children[0].Role != hierarchy.RoleWidget {
		t.Fatalf("container should directly wrap the widget, got %v", roles(root))
	}
}

func TestSimplifyIsFixedPoint(t *testing.T) {
	h := build(t, `
	  <div class="wrapper">
	    <div class="wrapper">
	      <div class="container">
	        <p>Deep text</p>
	      </div>
	    </div>
	  </div>`)

	h.Simplify()
	once := roles(h.Roots[0])
	h.Simplify()
	if twice := roles(h.Roots[0]); !reflect.DeepEqual(once, twice) {
		t.Errorf("second pass changed the tree: %v vs %v", once, twice)
	}
}

func TestSimplifyKeepsMultiChildContainers(t *testing.T) {
	h := build(t, `
	  <div class="container">
	    <div class="wrapper"><p>a</p></div>
	    <div class="wrapper"><p>b</p></div>
	  </div>`)

	h.Simplify()
	if got := len(h.Roots[0].Children); got != 2 {
		t.Errorf("children = %d, want 2 kept", got)
	}
}

func TestComponentsFlattenInDocumentOrder(t *testing.T) {
	h := build(t, `
	  <section>
	    <button class="btn">First</button>
	    <button class="btn">Second</button>
	  </section>`)

	comps := h.Components()
	if len(comps) != 3 {
		t.Fatalf("components = %d, want 3", len(comps))
	}
	if comps[1].Text != "First" || comps[2].Text != "Second" {
		t.Errorf("order = %q, %q", comps[1].Text, comps[2].Text)
	}
}

func TestEmptyBody(t *testing.T) {
	h := build(t, "")
	if len(h.Roots) != 0 || h.Visited != 0 {
		t.Errorf("empty body should yield empty hierarchy, got %+v", h)
	}
}

func TestAboveFoldThreading(t *testing.T) {
	h := build(t, `
	  <section><p>one</p></section>
	  <section><p>two</p></section>
	  <section><p>three</p></section>
	  <section><img src="late.jpg"></section>`)

	if len(h.Roots) != 4 {
		t.Fatalf("roots = %d, want 4", len(h.Roots))
	}
	for i := 0; i < 3; i++ {
		if !h.Roots[i].Component.AboveFold {
			t.Errorf("root %d must be above the fold", i)
		}
	}
	if h.Roots[3].Component.AboveFold {
		t.Error("fourth root must be below the fold")
	}
	// The flag reaches every descendant of a root through the walk.
	if img := h.Roots[3].Children[0]; img.Component.AboveFold {
		t.Error("descendants inherit the fold position of their root")
	}
	if p := h.Roots[0].Children[0]; !p.Component.AboveFold {
		t.Error("descendants of the first roots are above the fold")
	}
}

func TestSubmitButtonContext(t *testing.T) {
	h := build(t, `<form><button type="submit">Send</button></form>`)

	comps := h.Components()
	var found bool
	for _, c := range comps {
		if c.Result.Kind == recognize.KindSubmitButton {
			found = true
		}
	}
	if !found {
		t.Errorf("button inside form should recognize as submit-button, got %+v", kinds(comps))
	}
}

func kinds(comps []*recognize.Component) []recognize.Kind {
	out := make([]recognize.Kind, len(comps))
	for i, c := range comps {
		out[i] = c.Result.Kind
	}
	return out
}
