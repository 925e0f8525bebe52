package catalogs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ShippedContent(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Events.List) == 0 || len(c.Arcs.List) == 0 || len(c.Temptations.List) == 0 || len(c.Venues.List) == 0 {
		t.Fatalf("empty catalogs: %d events %d arcs %d temptations %d venues",
			len(c.Events.List), len(c.Arcs.List), len(c.Temptations.List), len(c.Venues.List))
	}
	if len(c.Digest) != 64 || len(c.Events.Digest) != 64 {
		t.Fatalf("digests not set: %q %q", c.Digest, c.Events.Digest)
	}
	if c.Events.ArcOf["rival_diss"] != "rivalry" {
		t.Fatalf("rival_diss should belong to rivalry, got %q", c.Events.ArcOf["rival_diss"])
	}
	if _, pooled := c.Events.ArcOf["gear_stolen"]; pooled {
		t.Fatalf("gear_stolen is standalone")
	}
	ev := c.Events.ByID["indie_label_offer"]
	ch, ok := ev.Choice("sign")
	if !ok || ch.DealOffer == nil || ch.DealOffer.Advance != 5000 {
		t.Fatalf("sign choice: %+v", ch)
	}
	if v, ok := ev.Conditions.Bound("minFans"); !ok || v != 1000 {
		t.Fatalf("minFans=%d ok=%v", v, ok)
	}
	if f, ok := ev.Conditions.Flags["hasLabelDeal"]; !ok || f {
		t.Fatalf("hasLabelDeal flag: %v %v", f, ok)
	}
}

func TestLoad_DigestStable(t *testing.T) {
	dir := filepath.Join("..", "..", "..", "configs")
	a, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a.Digest != b.Digest {
		t.Fatalf("digest changed between loads")
	}
}

func TestLoad_SchemaRejectsBadContent(t *testing.T) {
	src := filepath.Join("..", "..", "..", "configs", "content")
	dir := t.TempDir()
	content := filepath.Join(dir, "content")
	if err := os.MkdirAll(content, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"arcs", "temptations", "venues", "names"} {
		b, err := os.ReadFile(filepath.Join(src, name+".json"))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(content, name+".json"), b, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	bad := `[{"id":"x","title":"X","weight":-1,"choices":[]}]`
	if err := os.WriteFile(filepath.Join(content, "events.json"), []byte(bad), 0o644); err != nil {
		t.Fatalf("write events: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestNew_RejectsUnknownArcEvent(t *testing.T) {
	events := []Event{{ID: "a", Title: "A", Weight: 1, Choices: []Choice{{ID: "ok", Text: "ok"}}}}
	arcs := []Arc{{ID: "arc", Title: "Arc", Stages: []Stage{{Name: "s", EventIDs: []string{"missing"}}}}}
	if _, err := New(events, arcs, nil, nil, Names{}); err == nil {
		t.Fatalf("expected unknown event error")
	}
}

func TestNew_RejectsDuplicateChoice(t *testing.T) {
	events := []Event{{ID: "a", Title: "A", Weight: 1, Choices: []Choice{{ID: "x", Text: "x"}, {ID: "x", Text: "y"}}}}
	if _, err := New(events, nil, nil, nil, Names{}); err == nil {
		t.Fatalf("expected duplicate choice error")
	}
}

func TestConditions_JSON(t *testing.T) {
	var c Conditions
	if err := json.Unmarshal([]byte(`{"minFans":100,"maxMoney":0,"onTour":true,"completedArcs":["rivalry"]}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Bounds["minFans"] != 100 || c.Bounds["maxMoney"] != 0 || !c.Flags["onTour"] || c.CompletedArcs[0] != "rivalry" {
		t.Fatalf("parsed: %+v", c)
	}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"completedArcs":["rivalry"],"maxMoney":0,"minFans":100,"onTour":true}`
	if string(b) != want {
		t.Fatalf("marshal=%s want %s", b, want)
	}
	if err := json.Unmarshal([]byte(`{"minCharisma":5}`), &c); err == nil {
		t.Fatalf("unknown predicate should fail")
	}
}

func TestParseBoundKey(t *testing.T) {
	m, isMin, ok := ParseBoundKey("maxBandLoyalty")
	if !ok || isMin || m != "bandLoyalty" {
		t.Fatalf("got %q %v %v", m, isMin, ok)
	}
	if _, _, ok := ParseBoundKey("minimum"); ok {
		t.Fatalf("minimum is not a bound key")
	}
	if BoundKey("industryGoodwill", true) != "minIndustryGoodwill" {
		t.Fatalf("BoundKey mismatch")
	}
	c := Min("fans", 10).WithMax("money", 5).WithFlag("onTour", false)
	bs := c.SortedBounds()
	if len(bs) != 2 || bs[0].Key != "maxMoney" || bs[1].Key != "minFans" {
		t.Fatalf("sorted bounds: %+v", bs)
	}
}
