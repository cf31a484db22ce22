// Package graphviz renders a net as a figure: places as circles, transitions
// as boxes, inhibitor arcs with a dot head, bidirectional arcs with both
// arrowheads.
package graphviz

import (
	"fmt"
	"io"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/patsnet/petri"
)

type Font string

const (
	Helvetica Font = "Helvetica"
	Arial     Font = "Arial"
	SansSerif Font = "sans-serif"
)

type RankDir string

const (
	LeftToRight RankDir = "LR"
	RightToLeft RankDir = "RL"
	TopToBottom RankDir = "TB"
	BottomToTop RankDir = "BT"
)

type Config struct {
	Name string
	Font
	RankDir
	Format graphviz.Format
}

type Writer struct {
	*Config
	g       *cgraph.Graph
	mapping map[string]*cgraph.Node
}

func New(config *Config) *Writer {
	if config.Name == "" {
		config.Name = "petri"
	}
	if config.Format == "" {
		config.Format = graphviz.XDOT
	}
	return &Writer{
		Config:  config,
		mapping: make(map[string]*cgraph.Node),
	}
}

func (w *Writer) writePlace(i int, p *petri.Place) error {
	node, err := w.g.CreateNode(fmt.Sprintf("p%d", i))
	if err != nil {
		return err
	}
	node.SetShape(cgraph.CircleShape)
	label := p.String()
	if p.Tokens > 0 {
		label = fmt.Sprintf("%s\n%d", label, p.Tokens)
	}
	node.SetLabel(label)
	node.Set("fontname", string(w.Font))
	w.mapping[p.ID] = node
	return nil
}

func (w *Writer) writeTransition(i int, t *petri.Transition) error {
	node, err := w.g.CreateNode(fmt.Sprintf("t%d", i))
	if err != nil {
		return err
	}
	node.SetShape(cgraph.BoxShape)
	node.SetLabel(t.String())
	node.Set("fontname", string(w.Font))
	w.mapping[t.ID] = node
	return nil
}

func (w *Writer) writeArc(i int, a *petri.Arc) error {
	src := w.mapping[a.Incoming]
	dst := w.mapping[a.Outgoing]
	if src == nil || dst == nil {
		return fmt.Errorf("arc %s references unknown node", a.ID)
	}
	edge, err := w.g.CreateEdge(fmt.Sprintf("a%d", i), src, dst)
	if err != nil {
		return err
	}
	switch a.Kind {
	case petri.Inhibitor:
		edge.Set("arrowhead", "odot")
	case petri.Bidirectional:
		edge.Set("dir", "both")
	}
	return nil
}

// Flush renders the net to out in the configured format.
func (w *Writer) Flush(out io.Writer, net *petri.Net) error {
	graph := graphviz.New()
	defer func() {
		_ = graph.Close()
	}()
	g, err := graph.Graph()
	if err != nil {
		return err
	}
	g.SetRankDir(cgraph.RankDir(w.RankDir))
	w.g = g
	i := 0
	for _, p := range net.Places {
		if err := w.writePlace(i, p); err != nil {
			return err
		}
		i++
	}
	for j, t := range net.Transitions {
		if err := w.writeTransition(j, t); err != nil {
			return err
		}
	}
	k := 0
	for _, a := range net.Arcs {
		if err := w.writeArc(k, a); err != nil {
			return err
		}
		k++
	}
	return graph.Render(w.g, w.Format, out)
}
