package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestReadFrame(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":1,"result":null}`
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n%s", len(body), body)

	got, err := readFrame(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if string(got) != body {
		t.Errorf("body = %q, want %q", got, body)
	}
}

func TestReadFrameExtraHeaders(t *testing.T) {
	body := `{"jsonrpc":"2.0"}`
	raw := fmt.Sprintf("Content-Type: application/vscode-jsonrpc\r\nContent-Length: %d\r\n\r\n%s", len(body), body)

	got, err := readFrame(bufio.NewReader(strings.NewReader(raw)))
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if string(got) != body {
		t.Errorf("body = %q, want %q", got, body)
	}
}

func TestReadFrameConsecutive(t *testing.T) {
	var buf bytes.Buffer
	for _, body := range []string{`{"id":1}`, `{"id":2}`} {
		fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n%s", len(body), body)
	}
	r := bufio.NewReader(&buf)
	for i, want := range []string{`{"id":1}`, `{"id":2}`} {
		got, err := readFrame(r)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if string(got) != want {
			t.Errorf("frame %d = %q, want %q", i, got, want)
		}
	}
}

func TestReadFrameMissingLength(t *testing.T) {
	raw := "Content-Type: application/json\r\n\r\n{}"
	if _, err := readFrame(bufio.NewReader(strings.NewReader(raw))); err == nil {
		t.Fatal("expected error for missing Content-Length")
	}
}

func TestToRangeIndexing(t *testing.T) {
	r := toRange(wireRange{
		Start: position{Line: 0, Character: 0},
		End:   position{Line: 4, Character: 12},
	})
	if r.StartLine != 1 || r.StartCol != 1 {
		t.Errorf("start = %d:%d, want 1:1", r.StartLine, r.StartCol)
	}
	if r.EndLine != 5 || r.EndCol != 13 {
		t.Errorf("end = %d:%d, want 5:13", r.EndLine, r.EndCol)
	}
}

func TestMapSymbolKind(t *testing.T) {
	cases := []struct {
		raw  int
		want SymbolKind
	}{
		{5, KindClass},
		{11, KindInterface},
		{12, KindFunction},
		{13, KindVariable},
		{99, KindUnknown},
		{0, KindUnknown},
	}
	for _, tc := range cases {
		if got := MapSymbolKind(tc.raw); got != tc.want {
			t.Errorf("MapSymbolKind(%d) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestMapDiagnosticSeverity(t *testing.T) {
	if got := MapDiagnosticSeverity(1); got != DiagError {
		t.Errorf("severity 1 = %q, want error", got)
	}
	if got := MapDiagnosticSeverity(2); got != DiagWarning {
		t.Errorf("severity 2 = %q, want warning", got)
	}
	if got := MapDiagnosticSeverity(0); got != DiagHint {
		t.Errorf("severity 0 = %q, want hint", got)
	}
}

func TestURIRoundTrip(t *testing.T) {
	c := &Client{root: "/work/app"}
	uri := pathToURI("/work/app/src/index.ts")
	if uri != "file:///work/app/src/index.ts" {
		t.Errorf("uri = %q", uri)
	}
	if rel := c.uriToRel(uri); rel != "src/index.ts" {
		t.Errorf("rel = %q, want src/index.ts", rel)
	}
	// outside the root stays absolute
	if rel := c.uriToRel("file:///usr/lib/node/lib.d.ts"); rel != "/usr/lib/node/lib.d.ts" {
		t.Errorf("outside rel = %q", rel)
	}
}

func TestCodeString(t *testing.T) {
	if got := codeString("TS2304"); got != "TS2304" {
		t.Errorf("string code = %q", got)
	}
	if got := codeString(float64(2304)); got != "2304" {
		t.Errorf("numeric code = %q", got)
	}
	if got := codeString(nil); got != "" {
		t.Errorf("nil code = %q", got)
	}
}

func TestConvertSymbolsNested(t *testing.T) {
	raw := []documentSymbol{{
		Name: "UserService",
		Kind: 5,
		Children: []documentSymbol{
			{Name: "findById", Kind: 6},
		},
	}}
	got := convertSymbols(raw)
	if len(got) != 1 || got[0].Kind != KindClass {
		t.Fatalf("top = %+v", got)
	}
	if len(got[0].Children) != 1 || got[0].Children[0].Kind != KindMethod {
		t.Errorf("children = %+v", got[0].Children)
	}
}

type captureWriter struct{ bytes.Buffer }

func (w *captureWriter) Close() error { return nil }

func TestAnswerServerRequest(t *testing.T) {
	w := &captureWriter{}
	c := &Client{stdin: w}

	c.answerServerRequest(7, "workspace/configuration")
	body, err := readFrame(bufio.NewReader(bytes.NewReader(w.Bytes())))
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	var got reply
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != 7 || string(got.Result) != "null" || got.Error != nil {
		t.Errorf("configuration reply = %+v", got)
	}

	w.Reset()
	c.answerServerRequest(8, "window/showMessageRequest")
	body, err = readFrame(bufio.NewReader(bytes.NewReader(w.Bytes())))
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	got = reply{}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != 8 || got.Error == nil || got.Error.Code != -32601 {
		t.Errorf("unsupported-method reply = %+v", got)
	}
}
