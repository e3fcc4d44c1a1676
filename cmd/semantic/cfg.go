package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/semantic"
	"github.com/jward/semantic/internal/store"
)

var (
	flagNode   uint32
	flagStored bool
)

var cfgCmd = &cobra.Command{
	Use:   "cfg <file>",
	Short: "Print control-flow graphs in Graphviz DOT syntax",
	Long:  "Prints the control-flow graph of every body in the file, or only the body introduced by --node. With --stored the graphs are read from the index instead of re-analyzing the file. Text format prints raw DOT; json wraps each graph.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCFG,
}

func init() {
	cfgCmd.Flags().Uint32Var(&flagNode, "node", 0, "only print the graph introduced by this node id")
	cfgCmd.Flags().BoolVar(&flagStored, "stored", false, "read graphs from the index database")
}

// CLIGraph is one control-flow graph.
type CLIGraph struct {
	Node   uint32 `json:"node"`
	Blocks int    `json:"blocks"`
	Edges  int    `json:"edges"`
	DOT    string `json:"dot"`
}

func runCFG(cmd *cobra.Command, args []string) error {
	path, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("cfg", err)
	}

	var graphs []*semantic.Graph
	if flagStored {
		graphs, err = storedGraphs(path)
	} else {
		graphs, err = analyzedGraphs(cmd, path)
	}
	if err != nil {
		return outputError("cfg", err)
	}
	if flagNode != 0 {
		graphs = filterGraphs(graphs, flagNode)
		if len(graphs) == 0 {
			return outputError("cfg", fmt.Errorf("no graph for node %d in %s", flagNode, args[0]))
		}
	}

	if flagFormat == "text" {
		for _, g := range graphs {
			if err := g.WriteDOT(os.Stdout, nil); err != nil {
				return err
			}
		}
		return nil
	}
	out := make([]CLIGraph, 0, len(graphs))
	for _, g := range graphs {
		out = append(out, CLIGraph{
			Node:   uint32(g.Node),
			Blocks: g.Len(),
			Edges:  len(g.Edges()),
			DOT:    g.DOT(),
		})
	}
	return outputResult(CLIResult{Command: "cfg", Results: out})
}

func analyzedGraphs(cmd *cobra.Command, path string) ([]*semantic.Graph, error) {
	sem, err := analyzeFile(cmd.Context(), path, true)
	if err != nil {
		return nil, err
	}
	defer sem.Close()
	var out []*semantic.Graph
	for _, g := range sem.CFGs() {
		out = append(out, g)
	}
	return out, nil
}

// storedGraphs decodes the graphs the last index run wrote for path.
func storedGraphs(path string) ([]*semantic.Graph, error) {
	dbPath := resolveDBPath(findRepoRoot(filepath.Dir(path)))
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'semantic index' first)", dbPath)
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	f, err := s.FileByPath(path)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("file not indexed: %s", path)
	}
	rows, err := s.CFGsByFile(f.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*semantic.Graph, 0, len(rows))
	for _, row := range rows {
		g, err := row.Decode()
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", row.NodeID, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func filterGraphs(graphs []*semantic.Graph, node uint32) []*semantic.Graph {
	for _, g := range graphs {
		if uint32(g.Node) == node {
			return []*semantic.Graph{g}
		}
	}
	return nil
}
