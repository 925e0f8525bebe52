package catalogs

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBase = "https://gigcraft.ai/schemas/"

type Catalogs struct {
	Events      EventCatalog
	Arcs        ArcCatalog
	Temptations TemptationCatalog
	Venues      VenueCatalog
	Names       Names

	// Digest covers every content file, in load order.
	Digest string
}

type EventCatalog struct {
	List   []Event
	ByID   map[string]*Event
	ArcOf  map[string]string
	Digest string
}

type ArcCatalog struct {
	List   []Arc
	ByID   map[string]*Arc
	Digest string
}

type TemptationCatalog struct {
	List   []Temptation
	ByID   map[string]*Temptation
	Digest string
}

type VenueCatalog struct {
	List   []Venue
	ByID   map[string]*Venue
	Digest string
}

// Load reads <configDir>/content/*.json. Every file is checked against its
// embedded schema before decoding.
func Load(configDir string) (*Catalogs, error) {
	dir := filepath.Join(configDir, "content")
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	var (
		events      []Event
		arcs        []Arc
		temptations []Temptation
		venues      []Venue
		names       Names
		digests     = map[string]string{}
		all         bytes.Buffer
	)
	files := []struct {
		name string
		out  any
	}{
		{"events", &events},
		{"arcs", &arcs},
		{"temptations", &temptations},
		{"venues", &venues},
		{"names", &names},
	}
	for _, f := range files {
		raw, err := os.ReadFile(filepath.Join(dir, f.name+".json"))
		if err != nil {
			return nil, err
		}
		if err := validateDoc(schemas[f.name], raw); err != nil {
			return nil, fmt.Errorf("%s.json: %w", f.name, err)
		}
		if err := json.Unmarshal(raw, f.out); err != nil {
			return nil, fmt.Errorf("%s.json: %w", f.name, err)
		}
		digests[f.name] = sha256Hex(raw)
		all.Write(raw)
		all.WriteByte('\n')
	}

	c, err := New(events, arcs, temptations, venues, names)
	if err != nil {
		return nil, err
	}
	c.Events.Digest = digests["events"]
	c.Arcs.Digest = digests["arcs"]
	c.Temptations.Digest = digests["temptations"]
	c.Venues.Digest = digests["venues"]
	c.Digest = sha256Hex(all.Bytes())
	return c, nil
}

// New indexes catalogs built in memory and checks cross references.
func New(events []Event, arcs []Arc, temptations []Temptation, venues []Venue, names Names) (*Catalogs, error) {
	c := &Catalogs{Names: names}

	c.Events.List = events
	c.Events.ByID = make(map[string]*Event, len(events))
	c.Events.ArcOf = map[string]string{}
	for i := range c.Events.List {
		e := &c.Events.List[i]
		if e.ID == "" {
			return nil, fmt.Errorf("events: empty id")
		}
		if _, dup := c.Events.ByID[e.ID]; dup {
			return nil, fmt.Errorf("events: duplicate id %s", e.ID)
		}
		if e.Weight <= 0 {
			e.Weight = 1
		}
		if err := checkChoices("event "+e.ID, e.Choices); err != nil {
			return nil, err
		}
		c.Events.ByID[e.ID] = e
	}

	c.Arcs.List = arcs
	c.Arcs.ByID = make(map[string]*Arc, len(arcs))
	for i := range c.Arcs.List {
		a := &c.Arcs.List[i]
		if a.ID == "" || len(a.Stages) == 0 {
			return nil, fmt.Errorf("arcs: %q needs an id and stages", a.ID)
		}
		if _, dup := c.Arcs.ByID[a.ID]; dup {
			return nil, fmt.Errorf("arcs: duplicate id %s", a.ID)
		}
		for si, st := range a.Stages {
			if len(st.EventIDs) == 0 {
				return nil, fmt.Errorf("arc %s stage %d: empty event pool", a.ID, si)
			}
			for _, id := range st.EventIDs {
				if _, ok := c.Events.ByID[id]; !ok {
					return nil, fmt.Errorf("arc %s stage %d: unknown event %s", a.ID, si, id)
				}
				if owner, ok := c.Events.ArcOf[id]; ok && owner != a.ID {
					return nil, fmt.Errorf("event %s is pooled by arcs %s and %s", id, owner, a.ID)
				}
				c.Events.ArcOf[id] = a.ID
			}
		}
		c.Arcs.ByID[a.ID] = a
	}

	c.Temptations.List = temptations
	c.Temptations.ByID = make(map[string]*Temptation, len(temptations))
	for i := range c.Temptations.List {
		t := &c.Temptations.List[i]
		if t.ID == "" {
			return nil, fmt.Errorf("temptations: empty id")
		}
		if _, dup := c.Temptations.ByID[t.ID]; dup {
			return nil, fmt.Errorf("temptations: duplicate id %s", t.ID)
		}
		if t.Chance < 0 || t.Chance > 1 || t.Cooldown < 0 {
			return nil, fmt.Errorf("temptation %s: chance in [0,1] and cooldown >= 0 required", t.ID)
		}
		if err := checkChoices("temptation "+t.ID, t.Choices); err != nil {
			return nil, err
		}
		c.Temptations.ByID[t.ID] = t
	}

	c.Venues.List = venues
	c.Venues.ByID = make(map[string]*Venue, len(venues))
	for i := range c.Venues.List {
		v := &c.Venues.List[i]
		if v.ID == "" || v.Capacity <= 0 {
			return nil, fmt.Errorf("venues: %q needs an id and capacity", v.ID)
		}
		c.Venues.ByID[v.ID] = v
	}
	return c, nil
}

func checkChoices(owner string, choices []Choice) error {
	if len(choices) == 0 {
		return fmt.Errorf("%s: no choices", owner)
	}
	seen := map[string]bool{}
	for _, ch := range choices {
		if ch.ID == "" || seen[ch.ID] {
			return fmt.Errorf("%s: choice id %q empty or duplicated", owner, ch.ID)
		}
		seen[ch.ID] = true
		if ch.DealOffer != nil && !ch.DealOffer.DealType.Valid() {
			return fmt.Errorf("%s: choice %s has deal type %q", owner, ch.ID, ch.DealOffer.DealType)
		}
		if ch.Risk != nil && (ch.Risk.Chance < 0 || ch.Risk.Chance > 1) {
			return fmt.Errorf("%s: choice %s risk chance out of range", owner, ch.ID)
		}
	}
	return nil
}

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		b, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBase+e.Name(), bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", e.Name(), err)
		}
	}
	out := map[string]*jsonschema.Schema{}
	for _, name := range []string{"events", "arcs", "temptations", "venues", "names"} {
		s, err := c.Compile(schemaBase + name + ".schema.json")
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		out[name] = s
	}
	return out, nil
}

func validateDoc(s *jsonschema.Schema, raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
