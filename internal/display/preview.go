package display

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/zorder/internal/config"
	"github.com/jmylchreest/zorder/internal/layout"
	"github.com/jmylchreest/zorder/internal/view"
	"github.com/jmylchreest/zorder/internal/zorder"
)

//go:embed style.css
var previewCSS string

// AttrOrientation selects how a panel lays out its children in the preview.
const AttrOrientation = "orientation"

// nodeWidget holds the widgets mirroring one node.
type nodeWidget struct {
	outer gtk.Widgetter // Placed in the parent's box
	box   *gtk.Box      // Child box; nil for views
	label captioner
	view  bool
}

// captioner is implemented by both labels and frames.
type captioner interface {
	SetLabel(label string)
	AddCSSClass(cssClass string)
	RemoveCSSClass(cssClass string)
}

// setCaption shows z on w. Untracked views are dimmed.
func (w *nodeWidget) setCaption(name string, z int) {
	w.label.SetLabel(caption(name, z))
	if !w.view {
		return
	}
	if z == zorder.Sentinel {
		w.label.AddCSSClass("dim-label")
	} else {
		w.label.RemoveCSSClass("dim-label")
	}
}

// Preview is a window mirroring the live tree. Panels are framed boxes and
// views are labels; sibling order follows the tree as the registry reorders
// it. All methods must be called on the GTK main loop.
type Preview struct {
	logger   *slog.Logger
	cfg      config.PreviewConfig
	tree     *layout.Tree
	registry *zorder.Registry

	window   *adw.ApplicationWindow
	title    *adw.WindowTitle
	scroller *gtk.ScrolledWindow
	widgets  map[*view.Node]*nodeWidget
	sub      view.Subscription
	closing  bool
}

// NewPreview creates the preview window for tree. It is not shown until
// Present is called.
func NewPreview(app *adw.Application, tree *layout.Tree, registry *zorder.Registry, cfg config.PreviewConfig, logger *slog.Logger) *Preview {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Preview{
		logger:   logger,
		cfg:      cfg,
		tree:     tree,
		registry: registry,
		widgets:  make(map[*view.Node]*nodeWidget),
	}

	adw.StyleManagerGetDefault().SetColorScheme(colorScheme(cfg.ColorScheme))
	applyStyle(logger)

	p.window = adw.NewApplicationWindow(&app.Application)
	p.window.SetDefaultSize(cfg.Width, cfg.Height)

	p.title = adw.NewWindowTitle("", "")
	header := adw.NewHeaderBar()
	header.SetTitleWidget(p.title)

	p.scroller = gtk.NewScrolledWindow()
	p.scroller.SetVExpand(true)

	content := gtk.NewBox(gtk.OrientationVertical, 0)
	content.Append(header)
	content.Append(p.scroller)
	p.window.SetContent(content)

	p.Rebuild()
	p.sub = registry.OnReorder(p.reordered)
	return p
}

// Present shows the window.
func (p *Preview) Present() {
	p.window.Present()
}

// OnCloseRequest runs fn when the user closes the window. The window stays
// open until Close is called.
func (p *Preview) OnCloseRequest(fn func()) {
	p.window.ConnectCloseRequest(func() bool {
		if p.closing {
			return false
		}
		fn()
		return true
	})
}

// Close stops following the registry and closes the window.
func (p *Preview) Close() {
	if p.sub != nil {
		p.sub.Unsubscribe()
		p.sub = nil
	}
	p.closing = true
	p.window.Close()
}

// Rebuild recreates every widget from the tree. Call it after the tree has
// been reshaped by a layout reload.
func (p *Preview) Rebuild() {
	clear(p.widgets)

	root := p.tree.Root
	title := p.tree.Attr(root.Name(), "title")
	if title == "" {
		title = root.Name()
	}
	p.window.SetTitle(title)
	p.title.SetTitle(title)
	p.updateSubtitle()

	box := gtk.NewBox(orientation(p.tree.Attr(root.Name(), AttrOrientation)), 6)
	box.AddCSSClass("zorder-root")
	p.widgets[root] = &nodeWidget{outer: box, box: box}
	for _, c := range root.ChildNodes() {
		box.Append(p.build(c))
	}
	p.scroller.SetChild(box)

	p.logger.Debug("preview rebuilt", "views", len(p.widgets))
}

// Refresh updates the caption of the view named name after its z-order
// changed.
func (p *Preview) Refresh(name string) {
	n, ok := p.tree.Node(name)
	if !ok {
		return
	}
	if w := p.widgets[n]; w != nil && w.label != nil {
		w.setCaption(n.Name(), p.registry.Priority(n))
	}
	p.updateSubtitle()
}

func (p *Preview) build(n *view.Node) gtk.Widgetter {
	z := p.registry.Priority(n)
	tooltip := p.tree.Attr(n.Name(), "tooltip")

	if n.Kind() == string(layout.KindView) {
		lbl := gtk.NewLabel("")
		lbl.AddCSSClass("zorder-view")
		if tooltip != "" {
			lbl.SetTooltipText(tooltip)
		}
		w := &nodeWidget{outer: lbl, label: lbl, view: true}
		w.setCaption(n.Name(), z)
		p.widgets[n] = w
		return lbl
	}

	box := gtk.NewBox(orientation(p.tree.Attr(n.Name(), AttrOrientation)), 4)
	box.SetMarginTop(4)
	box.SetMarginBottom(4)
	box.SetMarginStart(4)
	box.SetMarginEnd(4)
	for _, c := range n.ChildNodes() {
		box.Append(p.build(c))
	}

	frame := gtk.NewFrame(caption(n.Name(), z))
	frame.AddCSSClass("zorder-panel")
	frame.SetChild(box)
	if tooltip != "" {
		frame.SetTooltipText(tooltip)
	}
	p.widgets[n] = &nodeWidget{outer: frame, box: box, label: frame}
	return frame
}

// reordered mirrors a registry reorder into the container's box.
func (p *Preview) reordered(c view.Container, order []view.View) {
	n, ok := c.(*view.Node)
	if !ok {
		return
	}
	w := p.widgets[n]
	if w == nil || w.box == nil {
		return
	}

	var prev gtk.Widgetter
	for _, v := range order {
		child, ok := v.(*view.Node)
		if !ok {
			continue
		}
		cw := p.widgets[child]
		if cw == nil {
			continue
		}
		w.box.ReorderChildAfter(cw.outer, prev)
		prev = cw.outer
		if cw.label != nil {
			cw.setCaption(child.Name(), p.registry.Priority(child))
		}
	}
}

func (p *Preview) updateSubtitle() {
	st := p.registry.Stats()
	p.title.SetSubtitle(fmt.Sprintf("%d tracked in %d groups", st.Tracked, st.Groups))
}

// caption labels a node with its z-order.
func caption(name string, z int) string {
	if z == zorder.Sentinel {
		return name
	}
	return fmt.Sprintf("%s  z=%d", name, z)
}

// orientation maps an orientation attribute to a GTK orientation. Boxes
// are vertical unless the attribute says "horizontal".
func orientation(attr string) gtk.Orientation {
	if attr == "horizontal" {
		return gtk.OrientationHorizontal
	}
	return gtk.OrientationVertical
}

// colorScheme maps the configured color scheme to libadwaita's.
func colorScheme(scheme string) adw.ColorScheme {
	switch config.ColorScheme(scheme) {
	case config.ColorSchemeLight:
		return adw.ColorSchemeForceLight
	case config.ColorSchemeDark:
		return adw.ColorSchemeForceDark
	default:
		return adw.ColorSchemeDefault
	}
}

func applyStyle(logger *slog.Logger) {
	display := gdk.DisplayGetDefault()
	if display == nil {
		logger.Warn("no display available, preview is unstyled")
		return
	}

	provider := gtk.NewCSSProvider()
	provider.LoadFromString(previewCSS)
	gtk.StyleContextAddProviderForDisplay(display, provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}
