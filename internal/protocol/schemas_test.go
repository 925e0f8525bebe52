package protocol

import "testing"

func TestSchemas_ValidateSamples(t *testing.T) {
	ok := map[string]string{
		TypeHello: `{"type":"HELLO","protocol_version":"1.0","player_name":"Kit","band_name":"Static Lungs","difficulty":"normal","seed":1337}`,
		TypeCmd:   `{"type":"CMD","protocol_version":"1.0","req_id":"r1","command":{"kind":"turn","action":"PRACTICE"}}`,
	}
	for typ, raw := range ok {
		if err := ValidateClient(typ, []byte(raw)); err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
	}
	if err := ValidateClient(TypeHello, []byte(`{"type":"HELLO","protocol_version":"1.0","auth":{"token":"run-1"}}`)); err != nil {
		t.Fatalf("resume hello: %v", err)
	}
	if err := ValidateClient(TypeCmd, []byte(`{"type":"CMD","protocol_version":"1.0","req_id":"r2","command":{"kind":"start_tour","tour":{"size":"regional"}}}`)); err != nil {
		t.Fatalf("tour cmd: %v", err)
	}
	if err := ValidateClient(TypeLeaderboardReq, []byte(`{"type":"LEADERBOARD_REQ","protocol_version":"1.0","req_id":"lb","limit":5}`)); err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
}

func TestSchemas_RejectMalformed(t *testing.T) {
	bad := []struct {
		typ string
		raw string
	}{
		{TypeCmd, `{"type":"CMD","protocol_version":"1.0","req_id":"r1","command":{"kind":"turn"}}`},
		{TypeCmd, `{"type":"CMD","protocol_version":"1.0","req_id":"r1","command":{"kind":"choice","triggerId":"e"}}`},
		{TypeCmd, `{"type":"CMD","protocol_version":"1.0","req_id":"r1","command":{"kind":"dance"}}`},
		{TypeCmd, `{"type":"CMD","protocol_version":"1.0","command":{"kind":"abandon"}}`},
		{TypeHello, `{"type":"HELLO","protocol_version":"1.0","agent_name":"bot"}`},
		{TypeLeaderboardReq, `{"type":"LEADERBOARD_REQ","protocol_version":"1.0","req_id":"lb","limit":1000}`},
	}
	for _, c := range bad {
		if err := ValidateClient(c.typ, []byte(c.raw)); err == nil {
			t.Fatalf("accepted %s", c.raw)
		}
	}
	if err := ValidateClient(TypeAck, []byte(`{}`)); err == nil {
		t.Fatalf("server message type accepted")
	}
}
