// Package server exposes editor tooling for assembly sources over the
// Language Server Protocol.
package server

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/petrel-lang/petrel/asm"
	"github.com/petrel-lang/petrel/bytecode"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "petrel-lsp"

// LspServer serves diagnostics, hover and completion for assembly sources.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
	log     commonlog.Logger
}

// NewLSP creates a new LSP server.
func NewLSP() *LspServer {
	s := &LspServer{
		docs:    make(map[string]string),
		version: "0.1.0",
		log:     commonlog.GetLogger("petrel.lsp"),
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.log.Info("initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}

	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			text := whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := diagnosticsFor(text)

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnosticsFor re-assembles the document and maps each syntax error to a
// diagnostic covering its source line.
func diagnosticsFor(text string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	lines := strings.Split(text, "\n")

	for _, serr := range asm.Check(text) {
		line := serr.Line - 1 // LSP lines are 0-based
		if line < 0 {
			line = 0
		}
		endChar := 0
		if line < len(lines) {
			endChar = len(lines[line])
		}

		severity := protocol.DiagnosticSeverityError
		source := lspName
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line), Character: 0},
				End:   protocol.Position{Line: uint32(line), Character: uint32(endChar)},
			},
			Severity: &severity,
			Source:   &source,
			Message:  serr.Msg,
		})
	}

	return diagnostics
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	uri := params.TextDocument.URI
	pos := params.Position

	s.mu.Lock()
	text, ok := s.docs[string(uri)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, pos)
	if prefix == "" {
		return nil, nil
	}

	items := complete(prefix)
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI
	pos := params.Position

	s.mu.Lock()
	text, ok := s.docs[string(uri)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	word := extractWord(text, pos)
	if word == "" {
		return nil, nil
	}

	return hover(word), nil
}

// complete returns the mnemonics matching prefix, plus the .word directive.
func complete(prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	upper := strings.ToUpper(prefix)

	for _, name := range bytecode.Mnemonics() {
		if !strings.HasPrefix(name, upper) {
			continue
		}
		op, _ := bytecode.ByMnemonic(name)
		info := bytecode.GetOpcodeInfo(op)

		kind := protocol.CompletionItemKindKeyword
		detail := operandHint(name, info.Operand)
		nameCopy := name
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &nameCopy,
		})
	}

	if strings.HasPrefix(".word", strings.ToLower(prefix)) {
		kind := protocol.CompletionItemKindKeyword
		detail := ".word <tag> <operand>"
		insert := ".word"
		items = append(items, protocol.CompletionItem{
			Label:      ".word",
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &insert,
		})
	}

	return items
}

// operandHint renders a one-line usage form for a mnemonic.
func operandHint(name string, kind bytecode.OperandKind) string {
	if kind == bytecode.OperandNone {
		return name
	}
	return fmt.Sprintf("%s <%s>", name, kind)
}

// hover documents the mnemonic under the cursor.
func hover(word string) *protocol.Hover {
	name := strings.ToUpper(word)
	op, ok := bytecode.ByMnemonic(name)
	if !ok {
		return nil
	}
	info := bytecode.GetOpcodeInfo(op)

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** `%#x`\n\n", info.Name, uint64(op))

	if doc := mnemonicDocs[info.Name]; doc != "" {
		b.WriteString(doc)
		b.WriteString("\n\n")
	}

	if info.Operand != bytecode.OperandNone {
		fmt.Fprintf(&b, "Operand: %s\n\n", info.Operand)
	}

	if info.StackPop < 0 {
		fmt.Fprintf(&b, "Stack: pops the operand count, pushes %d", info.StackPush)
	} else {
		fmt.Fprintf(&b, "Stack: pops %d, pushes %d", info.StackPop, info.StackPush)
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

// --- Text extraction helpers ---

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the token
	start := col
	for start > 0 {
		ch := line[start-1]
		if isMnemonicChar(ch) || ch == '.' {
			start--
		} else {
			break
		}
	}

	if start == col {
		return ""
	}

	return line[start:col]
}

// extractWord returns the full token under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 && isMnemonicChar(line[start-1]) {
		start--
	}

	end := col
	for end < len(line) && isMnemonicChar(line[end]) {
		end++
	}

	if start == end {
		return ""
	}

	return line[start:end]
}

// isMnemonicChar reports whether ch can appear in an assembler mnemonic.
func isMnemonicChar(ch byte) bool {
	return ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9'
}

func boolPtr(b bool) *bool {
	return &b
}
