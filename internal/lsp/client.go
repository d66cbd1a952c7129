package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Client speaks JSON-RPC 2.0 over stdio to an external language server
// (typescript-language-server, vtsls, ...). It implements Provider.
type Client struct {
	root string
	cmd  *exec.Cmd

	stdin  io.WriteCloser
	writeM sync.Mutex

	nextID  atomic.Int64
	pending sync.Mutex
	waiters map[int64]chan *response

	opened  sync.Mutex
	openSet map[string]bool

	diagCh chan FileDiagnostics
	done   chan struct{}
}

// NewClient starts the given language server command and performs the
// initialize handshake. root is the absolute workspace root.
func NewClient(ctx context.Context, root, command string, args ...string) (*Client, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = root
	cmd.Stderr = io.Discard

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("lsp stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("lsp stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start language server: %w", err)
	}

	c := &Client{
		root:    root,
		cmd:     cmd,
		stdin:   stdin,
		waiters: make(map[int64]chan *response),
		openSet: make(map[string]bool),
		diagCh:  make(chan FileDiagnostics, 64),
		done:    make(chan struct{}),
	}
	go c.readLoop(stdout)

	initParams := map[string]any{
		"processId": os.Getpid(),
		"rootUri":   pathToURI(root),
		"capabilities": map[string]any{
			"textDocument": map[string]any{
				"documentSymbol": map[string]any{"hierarchicalDocumentSymbolSupport": true},
				"publishDiagnostics": map[string]any{},
			},
			"workspace": map[string]any{"symbol": map[string]any{}},
		},
	}
	var initResult json.RawMessage
	if err := c.call(ctx, "initialize", initParams, &initResult); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}
	if err := c.notify("initialized", map[string]any{}); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialized notify: %w", err)
	}
	slog.Info("lsp.ready", "command", command, "root", root)
	return c, nil
}

// readLoop parses Content-Length framed messages, routing responses to
// their waiters and diagnostics notifications to the feed.
func (c *Client) readLoop(stdout io.Reader) {
	defer close(c.done)
	defer close(c.diagCh)

	r := bufio.NewReader(stdout)
	for {
		body, err := readFrame(r)
		if err != nil {
			if err != io.EOF {
				slog.Warn("lsp.read.err", "err", err)
			}
			c.failAllWaiters()
			return
		}
		var resp response
		if err := json.Unmarshal(body, &resp); err != nil {
			slog.Warn("lsp.decode.err", "err", err)
			continue
		}
		if resp.Method == "textDocument/publishDiagnostics" {
			c.handleDiagnostics(resp.Params)
			continue
		}
		// messages carrying a method are server-initiated; requests
		// among them need an answer or the server stalls
		if resp.Method != "" {
			if resp.ID != 0 {
				c.answerServerRequest(resp.ID, resp.Method)
			}
			continue
		}
		c.pending.Lock()
		ch, ok := c.waiters[resp.ID]
		if ok {
			delete(c.waiters, resp.ID)
		}
		c.pending.Unlock()
		if ok {
			ch <- &resp
		}
	}
}

func (c *Client) handleDiagnostics(params json.RawMessage) {
	var p publishDiagnosticsParams
	if err := json.Unmarshal(params, &p); err != nil {
		return
	}
	event := FileDiagnostics{Path: c.uriToRel(p.URI)}
	for _, d := range p.Diagnostics {
		event.Diagnostics = append(event.Diagnostics, Diagnostic{
			Severity: MapDiagnosticSeverity(d.Severity),
			Message:  d.Message,
			Range:    toRange(d.Range),
			Source:   d.Source,
			Code:     codeString(d.Code),
		})
	}
	select {
	case c.diagCh <- event:
	default:
		// feed consumer is behind; drop rather than block the read loop
	}
}

// answerServerRequest replies to a server-to-client request. Capability
// registrations and configuration pulls get a null result; anything
// else gets MethodNotFound.
func (c *Client) answerServerRequest(id int64, method string) {
	switch method {
	case "workspace/configuration", "client/registerCapability",
		"client/unregisterCapability", "window/workDoneProgress/create":
		_ = c.write(reply{JSONRPC: "2.0", ID: id, Result: json.RawMessage("null")})
	default:
		_ = c.write(reply{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: -32601, Message: "method not supported"}})
	}
}

func codeString(code any) string {
	switch v := code.(type) {
	case string:
		return v
	case float64:
		return strconv.Itoa(int(v))
	}
	return ""
}

// failAllWaiters unblocks every in-flight call after the server died.
func (c *Client) failAllWaiters() {
	c.pending.Lock()
	defer c.pending.Unlock()
	for id, ch := range c.waiters {
		ch <- &response{ID: id, Error: &rpcError{Code: -32000, Message: "language server exited"}}
		delete(c.waiters, id)
	}
}

// call issues a request and decodes its result into out.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	id := c.nextID.Add(1)
	ch := make(chan *response, 1)
	c.pending.Lock()
	c.waiters[id] = ch
	c.pending.Unlock()

	if err := c.write(request{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		c.pending.Lock()
		delete(c.waiters, id)
		c.pending.Unlock()
		return err
	}

	select {
	case <-ctx.Done():
		c.pending.Lock()
		delete(c.waiters, id)
		c.pending.Unlock()
		return ctx.Err()
	case <-c.done:
		return fmt.Errorf("%s: language server exited", method)
	case resp := <-ch:
		if resp.Error != nil {
			return fmt.Errorf("%s: %w", method, resp.Error)
		}
		if out != nil && len(resp.Result) > 0 && string(resp.Result) != "null" {
			if err := json.Unmarshal(resp.Result, out); err != nil {
				return fmt.Errorf("%s result: %w", method, err)
			}
		}
		return nil
	}
}

func (c *Client) notify(method string, params any) error {
	return c.write(request{JSONRPC: "2.0", Method: method, Params: params})
}

func (c *Client) write(msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	c.writeM.Lock()
	defer c.writeM.Unlock()
	if _, err := fmt.Fprintf(c.stdin, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err = c.stdin.Write(body)
	return err
}

// readFrame reads one Content-Length framed message.
func readFrame(r *bufio.Reader) ([]byte, error) {
	contentLength := 0
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if name, value, ok := strings.Cut(line, ": "); ok && name == "Content-Length" {
			contentLength, err = strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
		}
	}
	if contentLength <= 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}
	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return body, nil
}

// ensureOpen sends didOpen for a file once; most servers require an open
// document before answering position requests.
func (c *Client) ensureOpen(path string) error {
	c.opened.Lock()
	defer c.opened.Unlock()
	if c.openSet[path] {
		return nil
	}
	abs := filepath.Join(c.root, filepath.FromSlash(path))
	content, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	err = c.notify("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri":        pathToURI(abs),
			"languageId": languageIDFor(path),
			"version":    1,
			"text":       string(content),
		},
	})
	if err != nil {
		return err
	}
	c.openSet[path] = true
	return nil
}

func languageIDFor(path string) string {
	switch filepath.Ext(path) {
	case ".ts":
		return "typescript"
	case ".tsx":
		return "typescriptreact"
	case ".jsx":
		return "javascriptreact"
	default:
		return "javascript"
	}
}

// DocumentSymbols implements Provider.
func (c *Client) DocumentSymbols(ctx context.Context, path string) ([]Symbol, error) {
	if err := c.ensureOpen(path); err != nil {
		return nil, err
	}
	var raw []documentSymbol
	err := c.call(ctx, "textDocument/documentSymbol", map[string]any{
		"textDocument": c.docID(path),
	}, &raw)
	if err != nil {
		return nil, err
	}
	return convertSymbols(raw), nil
}

func convertSymbols(raw []documentSymbol) []Symbol {
	out := make([]Symbol, 0, len(raw))
	for _, s := range raw {
		out = append(out, Symbol{
			Name:           s.Name,
			Detail:         s.Detail,
			Kind:           MapSymbolKind(s.Kind),
			Range:          toRange(s.Range),
			SelectionRange: toRange(s.SelectionRange),
			Children:       convertSymbols(s.Children),
		})
	}
	return out
}

// WorkspaceSymbols implements Provider.
func (c *Client) WorkspaceSymbols(ctx context.Context, query string) ([]WorkspaceSymbol, error) {
	var raw []workspaceSymbol
	if err := c.call(ctx, "workspace/symbol", map[string]any{"query": query}, &raw); err != nil {
		return nil, err
	}
	out := make([]WorkspaceSymbol, 0, len(raw))
	for _, s := range raw {
		out = append(out, WorkspaceSymbol{
			Name:      s.Name,
			Kind:      MapSymbolKind(s.Kind),
			Container: s.ContainerName,
			Path:      c.uriToRel(s.Location.URI),
			Range:     toRange(s.Location.Range),
		})
	}
	return out, nil
}

// References implements Provider. line and col are 1-indexed.
func (c *Client) References(ctx context.Context, path string, line, col int) ([]Reference, error) {
	if err := c.ensureOpen(path); err != nil {
		return nil, err
	}
	var raw []location
	err := c.call(ctx, "textDocument/references", map[string]any{
		"textDocument": c.docID(path),
		"position":     position{Line: line - 1, Character: col - 1},
		"context":      map[string]any{"includeDeclaration": true},
	}, &raw)
	if err != nil {
		return nil, err
	}
	out := make([]Reference, 0, len(raw))
	for _, loc := range raw {
		refPath := c.uriToRel(loc.URI)
		out = append(out, Reference{
			Path:         refPath,
			Line:         loc.Range.Start.Line + 1,
			Column:       loc.Range.Start.Character + 1,
			LineText:     c.lineText(refPath, loc.Range.Start.Line),
			IsDefinition: refPath == path && loc.Range.Start.Line == line-1,
		})
	}
	return out, nil
}

// Definition implements Provider.
func (c *Client) Definition(ctx context.Context, path string, line, col int) ([]Definition, error) {
	if err := c.ensureOpen(path); err != nil {
		return nil, err
	}
	var raw []location
	err := c.call(ctx, "textDocument/definition", map[string]any{
		"textDocument": c.docID(path),
		"position":     position{Line: line - 1, Character: col - 1},
	}, &raw)
	if err != nil {
		// servers may return a single Location instead of a list
		var single location
		if err2 := c.call(ctx, "textDocument/definition", map[string]any{
			"textDocument": c.docID(path),
			"position":     position{Line: line - 1, Character: col - 1},
		}, &single); err2 != nil {
			return nil, err
		}
		raw = []location{single}
	}
	out := make([]Definition, 0, len(raw))
	for _, loc := range raw {
		out = append(out, Definition{Path: c.uriToRel(loc.URI), Range: toRange(loc.Range)})
	}
	return out, nil
}

// CallHierarchy implements Provider. Depth is clamped to small values;
// each level costs a server round trip per item.
func (c *Client) CallHierarchy(ctx context.Context, path string, line, col, depth int) (*CallHierarchyNode, error) {
	if err := c.ensureOpen(path); err != nil {
		return nil, err
	}
	var items []callHierarchyItem
	err := c.call(ctx, "textDocument/prepareCallHierarchy", map[string]any{
		"textDocument": c.docID(path),
		"position":     position{Line: line - 1, Character: col - 1},
	}, &items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return c.expandHierarchy(ctx, items[0], depth)
}

func (c *Client) expandHierarchy(ctx context.Context, item callHierarchyItem, depth int) (*CallHierarchyNode, error) {
	node := &CallHierarchyNode{
		Name:  item.Name,
		Kind:  MapSymbolKind(item.Kind),
		Path:  c.uriToRel(item.URI),
		Range: toRange(item.Range),
	}
	if depth <= 0 {
		return node, nil
	}

	var incoming []callHierarchyIncomingCall
	if err := c.call(ctx, "callHierarchy/incomingCalls", map[string]any{"item": item}, &incoming); err == nil {
		for _, call := range incoming {
			child, err := c.expandHierarchy(ctx, call.From, depth-1)
			if err != nil {
				continue
			}
			node.Incoming = append(node.Incoming, *child)
		}
	}
	var outgoing []callHierarchyOutgoingCall
	if err := c.call(ctx, "callHierarchy/outgoingCalls", map[string]any{"item": item}, &outgoing); err == nil {
		for _, call := range outgoing {
			child, err := c.expandHierarchy(ctx, call.To, depth-1)
			if err != nil {
				continue
			}
			node.Outgoing = append(node.Outgoing, *child)
		}
	}
	return node, nil
}

// Diagnostics implements Provider.
func (c *Client) Diagnostics() <-chan FileDiagnostics {
	return c.diagCh
}

// shutdownTimeout bounds the whole Close handshake; an unresponsive
// server is killed rather than hanging teardown.
const shutdownTimeout = 3 * time.Second

// Close implements Provider: shutdown handshake, then reap the process.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = c.call(ctx, "shutdown", nil, nil)
	_ = c.notify("exit", nil)
	_ = c.stdin.Close()

	waited := make(chan error, 1)
	go func() { waited <- c.cmd.Wait() }()
	select {
	case err := <-waited:
		return err
	case <-time.After(shutdownTimeout):
		_ = c.cmd.Process.Kill()
		return <-waited
	}
}

func (c *Client) docID(path string) textDocumentIdentifier {
	abs := filepath.Join(c.root, filepath.FromSlash(path))
	return textDocumentIdentifier{URI: pathToURI(abs)}
}

// lineText reads one 0-indexed line of a file for reference context.
func (c *Client) lineText(relPath string, line int) string {
	abs := filepath.Join(c.root, filepath.FromSlash(relPath))
	content, err := os.ReadFile(abs)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(content), "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line], "\r")
}

// pathToURI converts an absolute path to a file:// URI.
func pathToURI(abs string) string {
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs // windows drive paths
	}
	return "file://" + abs
}

// uriToRel converts a file:// URI back to a workspace-relative path.
func (c *Client) uriToRel(uri string) string {
	p := strings.TrimPrefix(uri, "file://")
	root := filepath.ToSlash(c.root)
	if rel, ok := strings.CutPrefix(p, root+"/"); ok {
		return rel
	}
	return p
}
