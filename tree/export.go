package tree

import (
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/gboost-ml/gboost/pkg/errors"
)

// DrawGraph renders the fitted tree as a graphviz graph. Internal nodes are
// labeled with their split, leaves with their value. The caller is
// responsible for closing the returned graphviz instance.
func (d *DecisionTreeRegressor) DrawGraph() (*graphviz.Graphviz, *cgraph.Graph, error) {
	if !d.IsFitted() {
		return nil, nil, errors.NewNotFittedError("DecisionTreeRegressor", "DrawGraph")
	}

	gv, err := graphviz.New(context.Background())
	if err != nil {
		return nil, nil, errors.Wrap(err, "DrawGraph: creating graphviz instance")
	}
	graph, err := gv.Graph()
	if err != nil {
		return nil, nil, errors.Wrap(err, "DrawGraph: creating graph")
	}

	counter := 0
	if _, err := drawNode(graph, d.root, nil, &counter); err != nil {
		return nil, nil, err
	}

	return gv, graph, nil
}

// SavePicture renders the fitted tree to an image file. The format is
// derived from the file extension (png, svg, jpg or dot).
func (d *DecisionTreeRegressor) SavePicture(path string, format graphviz.Format) error {
	gv, graph, err := d.DrawGraph()
	if err != nil {
		return err
	}
	defer func() {
		_ = graph.Close()
		_ = gv.Close()
	}()

	if err := gv.RenderFilename(context.Background(), graph, format, path); err != nil {
		return errors.Wrap(err, "SavePicture: rendering tree")
	}
	return nil
}

func drawNode(g *cgraph.Graph, n *node, parent *cgraph.Node, counter *int) (*cgraph.Node, error) {
	current, err := g.CreateNodeByName(fmt.Sprintf("n%d", *counter))
	if err != nil {
		return nil, errors.Wrap(err, "DrawGraph: creating node")
	}
	*counter++

	if parent != nil {
		if _, err := g.CreateEdgeByName("", parent, current); err != nil {
			return nil, errors.Wrap(err, "DrawGraph: creating edge")
		}
	}

	if n.kind == leafKind {
		current.Set("label", fmt.Sprintf("value = %.5g", n.value))
		current.Set("shape", "box")
		return current, nil
	}

	current.Set("label", fmt.Sprintf("x[%d] <= %.5g", n.feature, n.threshold))
	if _, err := drawNode(g, n.left, current, counter); err != nil {
		return nil, err
	}
	if _, err := drawNode(g, n.right, current, counter); err != nil {
		return nil, err
	}
	return current, nil
}
