package hcl_adapter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/buildshim/internal/buildgraph"
	"github.com/vk/buildshim/internal/ctxlog"
)

// Writer is the HCL implementation of buildgraph.Writer. It edits the files
// subprojects were loaded from in place, preserving everything it does not
// touch.
type Writer struct{}

// NewWriter creates a new HCL writer.
func NewWriter() *Writer {
	return &Writer{}
}

type pending struct {
	subproject string
	extension  *buildgraph.Extension
	changes    []buildgraph.Change
}

// Write persists pending extension changes. A file is only rewritten when its
// content actually changes. Changes are committed once every file is written.
func (w *Writer) Write(ctx context.Context, g *buildgraph.Graph) (int, error) {
	logger := ctxlog.FromContext(ctx)

	byFile := make(map[string][]pending)
	for _, sp := range g.Subprojects() {
		for _, ext := range sp.Extensions() {
			if ext.Body == nil {
				continue
			}
			changes := ext.Body.Changes()
			if len(changes) == 0 {
				continue
			}
			if sp.SourceFile == "" {
				return 0, fmt.Errorf("subproject %q has changes but no source file", sp.Name)
			}
			byFile[sp.SourceFile] = append(byFile[sp.SourceFile], pending{subproject: sp.Name, extension: ext, changes: changes})
		}
	}

	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	written := 0
	for _, file := range files {
		changed, err := w.rewrite(file, byFile[file])
		if err != nil {
			return written, err
		}
		if changed {
			written++
			logger.Info("Build definition updated.", "file", file)
		} else {
			logger.Debug("Build definition already up to date.", "file", file)
		}
	}

	for _, entries := range byFile {
		for _, p := range entries {
			p.extension.Body.Commit()
		}
	}
	return written, nil
}

func (w *Writer) rewrite(file string, entries []pending) (bool, error) {
	info, err := os.Stat(file)
	if err != nil {
		return false, fmt.Errorf("error accessing %s: %w", file, err)
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", file, err)
	}
	expanded, err := expandSingleLineBlocks(src, file, entries)
	if err != nil {
		return false, err
	}
	f, diags := hclwrite.ParseConfig(expanded, file, hcl.InitialPos)
	if diags.HasErrors() {
		return false, fmt.Errorf("failed to parse HCL file %s for writing: %w", file, diags)
	}

	for _, p := range entries {
		spBlock := f.Body().FirstMatchingBlock("subproject", []string{p.subproject})
		if spBlock == nil {
			return false, fmt.Errorf("%s: subproject %q not found", file, p.subproject)
		}
		extBlock := spBlock.Body().FirstMatchingBlock("extension", []string{p.extension.Name})
		if extBlock == nil {
			extBlock = spBlock.Body().AppendNewBlock("extension", []string{p.extension.Name})
		}
		for _, c := range p.changes {
			body := extBlock.Body()
			for _, name := range c.Path[:len(c.Path)-1] {
				child := body.FirstMatchingBlock(name, nil)
				if child == nil {
					child = body.AppendNewBlock(name, nil)
				}
				body = child.Body()
			}
			body.SetAttributeValue(c.Path[len(c.Path)-1], c.Value)
		}
	}

	out := hclwrite.Format(f.Bytes())
	if bytes.Equal(out, src) {
		return false, nil
	}
	if err := os.WriteFile(file, out, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("writing %s: %w", file, err)
	}
	return true, nil
}

// expandSingleLineBlocks breaks every single-line block the entries write
// into, such as `x {}` or `x { a = 1 }`, onto separate lines. hclwrite can
// only append attributes to multi-line blocks. Only newlines are inserted, so
// the existing attributes keep their original tokens.
func expandSingleLineBlocks(src []byte, file string, entries []pending) ([]byte, error) {
	f, diags := hclsyntax.ParseConfig(src, file, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s for writing: %w", file, diags)
	}
	root, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return src, nil
	}

	breaks := make(map[int]struct{})
	mark := func(b *hclsyntax.Block) {
		if b.OpenBraceRange.Start.Line != b.CloseBraceRange.Start.Line {
			return
		}
		breaks[b.OpenBraceRange.End.Byte] = struct{}{}
		breaks[b.CloseBraceRange.Start.Byte] = struct{}{}
	}

	for _, p := range entries {
		spBlock := findBlock(root, "subproject", p.subproject)
		if spBlock == nil {
			continue
		}
		extBlock := findBlock(spBlock.Body, "extension", p.extension.Name)
		if extBlock == nil {
			continue
		}
		mark(extBlock)
		for _, c := range p.changes {
			body := extBlock.Body
			for _, name := range c.Path[:len(c.Path)-1] {
				child := findBlock(body, name)
				if child == nil {
					break
				}
				mark(child)
				body = child.Body
			}
		}
	}
	if len(breaks) == 0 {
		return src, nil
	}

	offsets := make([]int, 0, len(breaks))
	for off := range breaks {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	out := make([]byte, 0, len(src)+len(offsets))
	prev := 0
	for _, off := range offsets {
		out = append(out, src[prev:off]...)
		out = append(out, '\n')
		prev = off
	}
	return append(out, src[prev:]...), nil
}

func findBlock(body *hclsyntax.Body, typ string, labels ...string) *hclsyntax.Block {
	for _, b := range body.Blocks {
		if b.Type != typ || len(b.Labels) != len(labels) {
			continue
		}
		match := true
		for i, l := range labels {
			if b.Labels[i] != l {
				match = false
				break
			}
		}
		if match {
			return b
		}
	}
	return nil
}
