//go:build !(386 || arm || mips || mipsle || wasm)

package semantic

import (
	"bytes"

	"github.com/jward/semantic/internal/parse"
)

var wordByte = func() (t [256]bool) {
	for c := 'a'; c <= 'z'; c++ {
		t[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		t[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		t[c] = true
	}
	t['_'] = true
	t['$'] = true
	for c := 0x80; c < 0x100; c++ {
		t[c] = true
	}
	return t
}()

// estimate infers counts from the source bytes without visiting the tree.
// Every scope other than the program starts at a '{', an arrow, a for
// head, a type alias or a type parameter list; every symbol and reference
// is an identifier word.
// Words inside strings and comments only overshoot.
func estimate(tree *parse.Tree) Stats {
	src := tree.Source
	braces := clampUint32(bytes.Count(src, []byte{'{'}))
	arrows := clampUint32(bytes.Count(src, []byte("=>")))
	angles := clampUint32(bytes.Count(src, []byte{'<'}))

	var words, heads uint32
	for i := 0; i < len(src); {
		if !wordByte[src[i]] {
			i++
			continue
		}
		start := i
		for i < len(src) && wordByte[src[i]] {
			i++
		}
		if c := src[start]; c >= '0' && c <= '9' {
			continue
		}
		words++
		switch string(src[start:i]) {
		case "for", "type":
			heads++
		}
	}

	scopes := satAdd(satAdd(satAdd(satAdd(1, braces), arrows), heads), angles)
	return Stats{
		Nodes:      satAdd(satAdd(satAdd(words, words), braces), 16),
		Scopes:     scopes,
		Symbols:    words,
		References: words,
	}
}
