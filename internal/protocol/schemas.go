package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var schemaFiles = map[string]string{
	TypeHello:          "hello.schema.json",
	TypeCmd:            "cmd.schema.json",
	TypeLeaderboardReq: "leaderboard_req.schema.json",
}

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		out := map[string]*jsonschema.Schema{}
		for typ, name := range schemaFiles {
			b, err := schemaFS.ReadFile("schemas/" + name)
			if err != nil {
				schemasErr = err
				return
			}
			id := "https://gigcraft.ai/schemas/" + name
			if err := c.AddResource(id, bytes.NewReader(b)); err != nil {
				schemasErr = fmt.Errorf("%s: %w", name, err)
				return
			}
			sch, err := c.Compile(id)
			if err != nil {
				schemasErr = fmt.Errorf("%s: %w", name, err)
				return
			}
			out[typ] = sch
		}
		schemas = out
	})
	return schemas, schemasErr
}

// ValidateClient checks a raw client message against the schema for its type.
func ValidateClient(msgType string, raw []byte) error {
	all, err := compileSchemas()
	if err != nil {
		return err
	}
	sch, ok := all[msgType]
	if !ok {
		return fmt.Errorf("unexpected message type %q", msgType)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return sch.Validate(doc)
}
