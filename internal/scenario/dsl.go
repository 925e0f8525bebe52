package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Scenario is a scripted career: how to start it and the steps to play.
type Scenario struct {
	Name       string
	Seed       int64
	Difficulty string
	PlayerName string
	BandName   string
	Steps      []Step
}

// Step is one scripted command or assertion.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadFile runs a Lua script that must return a Scenario built with
// Scenario.new.
func LoadFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerLuaTypes(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	return finish(state, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

// LoadString is LoadFile for an inline script.
func LoadString(name, src string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerLuaTypes(state)

	if err := lua.LoadString(state, src); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	return finish(state, name)
}

func finish(state *lua.State, fallbackName string) (*Scenario, error) {
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	sc, ok := ud.(*Scenario)
	if !ok || sc == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	if strings.TrimSpace(sc.Name) == "" {
		sc.Name = fallbackName
	}
	return sc, nil
}

func registerLuaTypes(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

// Scenario.new(name, {seed=, difficulty=, player=, band=})
func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	opts := optionalTable(state, 2)
	sc := &Scenario{
		Name:       name,
		Seed:       int64(intArg(opts, "seed", 1)),
		Difficulty: stringArg(opts, "difficulty", ""),
		PlayerName: stringArg(opts, "player", ""),
		BandName:   stringArg(opts, "band", ""),
	}
	state.PushUserData(sc)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "turn", Function: scenarioTurn},
	{Name: "turns", Function: scenarioTurns},
	{Name: "choose", Function: scenarioChoose},
	{Name: "name_song", Function: scenarioNameSong},
	{Name: "name_album", Function: scenarioNameAlbum},
	{Name: "fire", Function: scenarioFire},
	{Name: "record", Function: scenarioRecord},
	{Name: "tour", Function: scenarioTour},
	{Name: "abandon", Function: scenarioAbandon},
	{Name: "autopilot", Function: scenarioAutopilot},
	{Name: "expect", Function: scenarioExpect},
}

// s:turn("PRACTICE", {error="E_UNAVAILABLE"})
func scenarioTurn(state *lua.State) int {
	sc := checkScenario(state)
	data := optionalTable(state, 3)
	data["action"] = strings.ToUpper(lua.CheckString(state, 2))
	appendStep(sc, "turn", data)
	return 0
}

// s:turns("REST", 4) settles anything that comes up in between with the
// autopilot.
func scenarioTurns(state *lua.State) int {
	sc := checkScenario(state)
	action := strings.ToUpper(lua.CheckString(state, 2))
	n := lua.CheckInteger(state, 3)
	appendStep(sc, "turns", map[string]any{"action": action, "count": n})
	return 0
}

// s:choose("event_id", "choice_id"), or s:choose() to take the first option
// of whatever is pending.
func scenarioChoose(state *lua.State) int {
	sc := checkScenario(state)
	data := map[string]any{}
	if !state.IsNoneOrNil(2) {
		data["trigger"] = lua.CheckString(state, 2)
		data["choice"] = lua.CheckString(state, 3)
	}
	if opts := optionalTable(state, 4); len(opts) > 0 {
		for k, v := range opts {
			data[k] = v
		}
	}
	appendStep(sc, "choose", data)
	return 0
}

// s:name_song("Title") names the oldest song awaiting a title.
func scenarioNameSong(state *lua.State) int {
	sc := checkScenario(state)
	data := optionalTable(state, 3)
	data["title"] = lua.OptString(state, 2, "")
	appendStep(sc, "name_song", data)
	return 0
}

func scenarioNameAlbum(state *lua.State) int {
	sc := checkScenario(state)
	data := optionalTable(state, 3)
	data["title"] = lua.OptString(state, 2, "")
	appendStep(sc, "name_album", data)
	return 0
}

// s:fire("bm-1")
func scenarioFire(state *lua.State) int {
	sc := checkScenario(state)
	data := optionalTable(state, 3)
	data["target"] = lua.CheckString(state, 2)
	appendStep(sc, "fire", data)
	return 0
}

// s:record({kind="write_and_record", studio="home", weeks=2, title="..."})
func scenarioRecord(state *lua.State) int {
	sc := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(sc, "record", tableToMap(state, 2))
	return 0
}

// s:tour("regional", {name="..."})
func scenarioTour(state *lua.State) int {
	sc := checkScenario(state)
	data := optionalTable(state, 3)
	data["size"] = lua.CheckString(state, 2)
	appendStep(sc, "tour", data)
	return 0
}

func scenarioAbandon(state *lua.State) int {
	sc := checkScenario(state)
	appendStep(sc, "abandon", optionalTable(state, 2))
	return 0
}

// s:autopilot(50) plays fixed-policy steps until the count or the run runs out.
func scenarioAutopilot(state *lua.State) int {
	sc := checkScenario(state)
	appendStep(sc, "autopilot", map[string]any{"count": lua.CheckInteger(state, 2)})
	return 0
}

// s:expect("money", ">=", 100)
func scenarioExpect(state *lua.State) int {
	sc := checkScenario(state)
	field := lua.CheckString(state, 2)
	op := lua.CheckString(state, 3)
	var want any
	switch state.TypeOf(4) {
	case lua.TypeBoolean:
		want = state.ToBoolean(4)
	case lua.TypeString:
		want, _ = state.ToString(4)
	default:
		want = normalizeNumber(lua.CheckNumber(state, 4))
	}
	appendStep(sc, "expect", map[string]any{"field": field, "op": op, "value": want})
	return 0
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if sc, ok := ud.(*Scenario); ok && sc != nil {
		return sc
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(sc *Scenario, kind string, data map[string]any) {
	if sc == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	sc.Steps = append(sc.Steps, Step{Kind: kind, Args: data})
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}
	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToList(state, index)
	default:
		return nil
	}
}

// Scenario tables only nest as arrays (song id lists).
func tableToList(state *lua.State, index int) []any {
	index = state.AbsIndex(index)
	var out []any
	for i := 1; ; i++ {
		state.RawGetInt(index, i)
		if state.IsNil(-1) {
			state.Pop(1)
			return out
		}
		out = append(out, luaToGo(state, -1))
		state.Pop(1)
	}
}

func normalizeNumber(value float64) any {
	if value == math.Trunc(value) && math.Abs(value) < 1<<53 {
		return int(value)
	}
	return value
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

func stringArg(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return def
}
