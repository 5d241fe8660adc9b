package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/r9s-ai/macrofmt/internal/reindent"
)

func newTestServer(in io.Reader, out io.Writer) *Server {
	return NewServer(in, out, nil, reindent.DefaultDialect())
}

func TestRun_InitializeShutdownExit(t *testing.T) {
	var in bytes.Buffer
	writeLSPMessage(&in, map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params":  map[string]any{},
	})
	writeLSPMessage(&in, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "shutdown",
		"params":  map[string]any{},
	})
	writeLSPMessage(&in, map[string]any{
		"jsonrpc": "2.0",
		"method":  "exit",
		"params":  map[string]any{},
	})

	var out bytes.Buffer
	s := newTestServer(&in, &out)
	s.Version = "1.2.3"
	if err := s.Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	msgs := readAllLSPMessages(t, out.Bytes())
	if len(msgs) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(msgs))
	}
	result, ok := msgs[0]["result"].(map[string]any)
	if !ok {
		t.Fatalf("initialize response missing result: %+v", msgs[0])
	}
	caps := result["capabilities"].(map[string]any)
	if caps["documentFormattingProvider"] != true {
		t.Fatalf("expected formatting capability, got: %+v", caps)
	}
	info := result["serverInfo"].(map[string]any)
	if info["version"] != "1.2.3" {
		t.Fatalf("expected server version 1.2.3, got: %+v", info)
	}
	if msgs[1]["id"] == nil || msgs[1]["result"] == nil {
		t.Fatalf("shutdown response missing id/result: %+v", msgs[1])
	}
}

func TestRun_StopsAtExitWithoutDrainingInput(t *testing.T) {
	var in bytes.Buffer
	writeLSPMessage(&in, map[string]any{"jsonrpc": "2.0", "method": "exit"})
	writeLSPMessage(&in, map[string]any{"jsonrpc": "2.0", "id": 3, "method": "initialize"})

	var out bytes.Buffer
	if err := newTestServer(&in, &out).Run(); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no responses after exit, got %q", out.String())
	}
}

func TestHandle_DidOpenPublishesDiagnostics(t *testing.T) {
	var out bytes.Buffer
	s := newTestServer(stringsReader(""), &out)

	params, err := json.Marshal(didOpenParams{
		TextDocument: textDocumentItem{
			URI:  "file:///tmp/a.rs",
			Text: "fn view() {\n    html! {\n        p\n",
		},
	})
	if err != nil {
		t.Fatalf("marshal didOpen params: %v", err)
	}
	if err := s.handle(inboundMessage{
		JSONRPC: "2.0",
		Method:  "textDocument/didOpen",
		Params:  params,
	}); err != nil {
		t.Fatalf("handle didOpen: %v", err)
	}

	msgs := readAllLSPMessages(t, out.Bytes())
	if len(msgs) != 1 {
		t.Fatalf("expected diagnostics notification, got %d messages", len(msgs))
	}
	if msgs[0]["method"] != "textDocument/publishDiagnostics" {
		t.Fatalf("expected publishDiagnostics, got: %+v", msgs[0])
	}
	diags := msgs[0]["params"].(map[string]any)["diagnostics"].([]any)
	if len(diags) != 1 {
		t.Fatalf("expected one unterminated block diagnostic, got: %+v", diags)
	}
}

func TestHandle_InvalidHoverParamsReplyError(t *testing.T) {
	var out bytes.Buffer
	s := newTestServer(stringsReader(""), &out)

	rawID := json.RawMessage("7")
	if err := s.handle(inboundMessage{
		JSONRPC: "2.0",
		ID:      &rawID,
		Method:  "textDocument/hover",
		Params:  json.RawMessage(`{"oops":`),
	}); err != nil {
		t.Fatalf("handle hover should not return error: %v", err)
	}

	msgs := readAllLSPMessages(t, out.Bytes())
	if len(msgs) != 1 {
		t.Fatalf("expected one response, got %d", len(msgs))
	}
	if msgs[0]["error"] == nil {
		t.Fatalf("expected error response, got: %+v", msgs[0])
	}
}

func TestHandle_FormattingReturnsWholeDocumentEdit(t *testing.T) {
	var out bytes.Buffer
	s := newTestServer(stringsReader(""), &out)
	uri := "file:///tmp/f.rs"
	s.docs[uri] = "html! {\np\n}\n"

	params, err := json.Marshal(documentFormattingParams{TextDocument: textDocumentIdentifier{URI: uri}})
	if err != nil {
		t.Fatalf("marshal formatting params: %v", err)
	}
	rawID := json.RawMessage("8")
	if err := s.handle(inboundMessage{
		JSONRPC: "2.0",
		ID:      &rawID,
		Method:  "textDocument/formatting",
		Params:  params,
	}); err != nil {
		t.Fatalf("handle formatting: %v", err)
	}

	msgs := readAllLSPMessages(t, out.Bytes())
	if len(msgs) != 1 {
		t.Fatalf("expected one formatting response, got %d", len(msgs))
	}
	edits, ok := msgs[0]["result"].([]any)
	if !ok || len(edits) != 1 {
		t.Fatalf("expected one edit, got: %+v", msgs[0])
	}
	edit := edits[0].(map[string]any)
	if edit["newText"] != "html! {\n    p\n}\n" {
		t.Fatalf("unexpected newText: %q", edit["newText"])
	}
}

func TestHandle_FormattingTooManyTabsReplyError(t *testing.T) {
	var out bytes.Buffer
	s := newTestServer(stringsReader(""), &out)
	uri := "file:///tmp/tabs.rs"
	s.docs[uri] = "\t\thtml! {\np\n}\n"

	params, _ := json.Marshal(documentFormattingParams{TextDocument: textDocumentIdentifier{URI: uri}})
	rawID := json.RawMessage("9")
	if err := s.handle(inboundMessage{
		JSONRPC: "2.0",
		ID:      &rawID,
		Method:  "textDocument/formatting",
		Params:  params,
	}); err != nil {
		t.Fatalf("handle formatting should not return error: %v", err)
	}

	msgs := readAllLSPMessages(t, out.Bytes())
	if len(msgs) != 1 || msgs[0]["error"] == nil {
		t.Fatalf("expected error response, got: %+v", msgs)
	}
}

func TestHandle_InvalidFormattingParamsReplyError(t *testing.T) {
	var out bytes.Buffer
	s := newTestServer(stringsReader(""), &out)
	rawID := json.RawMessage("10")
	if err := s.handle(inboundMessage{
		JSONRPC: "2.0",
		ID:      &rawID,
		Method:  "textDocument/formatting",
		Params:  json.RawMessage(`{"bad":`),
	}); err != nil {
		t.Fatalf("handle formatting should not return error: %v", err)
	}

	msgs := readAllLSPMessages(t, out.Bytes())
	if len(msgs) != 1 || msgs[0]["error"] == nil {
		t.Fatalf("expected error response for invalid formatting params, got: %+v", msgs)
	}
}

func writeLSPMessage(w *bytes.Buffer, payload any) {
	b, _ := json.Marshal(payload)
	_, _ = w.WriteString(fmt.Sprintf("Content-Length: %d\r\n\r\n", len(b)))
	_, _ = w.Write(b)
}

func readAllLSPMessages(t *testing.T, raw []byte) []map[string]any {
	t.Helper()
	r := bufio.NewReader(bytes.NewReader(raw))
	out := make([]map[string]any, 0, 4)
	for {
		msg, err := readMessage(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("readMessage: %v", err)
		}
		var obj map[string]any
		if err := json.Unmarshal(msg, &obj); err != nil {
			t.Fatalf("unmarshal LSP message: %v", err)
		}
		out = append(out, obj)
	}
	return out
}

func stringsReader(s string) *bytes.Reader { return bytes.NewReader([]byte(s)) }
