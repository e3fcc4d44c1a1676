package store

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/jward/semantic/internal/cfg"
)

// cfgSchemaVersion is bumped whenever cfg.Snapshot changes shape.
const cfgSchemaVersion uint16 = 1

type cfgPayload struct {
	Version uint16       `msgpack:"v"`
	Graph   cfg.Snapshot `msgpack:"g"`
}

// EncodeCFG serializes a graph with msgpack. Map keys are sorted so equal
// graphs encode to equal bytes.
func EncodeCFG(g *cfg.Graph) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(cfgPayload{Version: cfgSchemaVersion, Graph: g.Snapshot()}); err != nil {
		return nil, fmt.Errorf("encode cfg %d: %w", g.Node, err)
	}
	return buf.Bytes(), nil
}

// DecodeCFG restores a graph written by EncodeCFG.
func DecodeCFG(data []byte) (*cfg.Graph, error) {
	var p cfgPayload
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode cfg: %w", err)
	}
	if p.Version != cfgSchemaVersion {
		return nil, fmt.Errorf("decode cfg: schema version %d, want %d", p.Version, cfgSchemaVersion)
	}
	g, err := cfg.FromSnapshot(p.Graph)
	if err != nil {
		return nil, fmt.Errorf("decode cfg: %w", err)
	}
	return g, nil
}

// Decode restores the stored graph.
func (c *CFG) Decode() (*cfg.Graph, error) {
	return DecodeCFG(c.Graph)
}
