package engine

import (
	"github.com/inamate/rig/internal/bus"
	"github.com/inamate/rig/internal/document"
	"github.com/inamate/rig/internal/history"
)

// Property is an animatable value of a node. It stores a design value and an
// animate increment; the visual values are what transforms and views read,
// and are re-derived on every committed change or pushed directly while a
// value is being dragged.
type Property struct {
	node *Node
	typ  document.PropertyType

	design    float64
	increment float64

	designVisual  float64
	animateVisual float64
}

func newProperty(n *Node, s document.PropertyState) *Property {
	p := &Property{node: n, typ: s.Type, design: s.Design, increment: s.Animate}
	p.refresh()
	return p
}

func (p *Property) Type() document.PropertyType { return p.typ }
func (p *Property) Node() document.NodeID       { return p.node.id }
func (p *Property) IsIncremental() bool         { return p.typ.IsIncremental() }
func (p *Property) DesignValue() float64        { return p.design }

// AnimateIncrement is the stored animate quantity: an offset from the design
// value for incremental properties, the absolute value otherwise.
func (p *Property) AnimateIncrement() float64 { return p.increment }

// AnimateNetValue resolves an animate increment to the value it represents.
func (p *Property) AnimateNetValue(increment float64) float64 {
	if p.IsIncremental() {
		return p.design + increment
	}
	return increment
}

// NetAnimateValue is the resolved animate value.
func (p *Property) NetAnimateValue() float64 {
	return p.AnimateNetValue(p.increment)
}

func (p *Property) DesignVisualValue() float64  { return p.designVisual }
func (p *Property) AnimateVisualValue() float64 { return p.animateVisual }

// VisualValue returns the visual value for pose.
func (p *Property) VisualValue(pose Pose) float64 {
	switch pose {
	case PoseAnimate:
		return p.animateVisual
	case poseCommitted:
		return p.design
	}
	return p.designVisual
}

// State returns the stored values.
func (p *Property) State() document.PropertyState {
	return document.PropertyState{Type: p.typ, Design: p.design, Animate: p.increment}
}

// SetDesignValue records a design value change through u. It does nothing if
// the value is unchanged.
func (p *Property) SetDesignValue(u *history.UnitOfWork, v float64) {
	if v == p.design {
		return
	}
	u.Execute(history.PropertyDesignValueChanged{
		Node:     p.node.id,
		Property: p.typ,
		Value:    v,
		Previous: p.design,
		Bulk:     u.Bulk(),
	})
}

// SetAnimateValue records the animate value net through u. Incremental
// properties store net minus the design value. Setting the current net value
// does nothing, even when net minus design would not give back the stored
// increment.
func (p *Property) SetAnimateValue(u *history.UnitOfWork, net float64) {
	if net == p.NetAnimateValue() {
		return
	}
	stored := net
	if p.IsIncremental() {
		stored = net - p.design
	}
	p.setIncrement(u, stored)
}

// ResetAnimateValueToDesignPose makes the animate value equal the design value.
func (p *Property) ResetAnimateValueToDesignPose(u *history.UnitOfWork) {
	if p.IsIncremental() {
		p.setIncrement(u, 0)
		return
	}
	p.setIncrement(u, p.design)
}

func (p *Property) setIncrement(u *history.UnitOfWork, stored float64) {
	if stored == p.increment {
		return
	}
	u.Execute(history.PropertyAnimateIncrementChanged{
		Node:     p.node.id,
		Property: p.typ,
		Value:    stored,
		Previous: p.increment,
		Bulk:     u.Bulk(),
	})
}

// PushDesignVisualValue previews a design value without recording history.
// The next committed change or refresh overwrites it.
func (p *Property) PushDesignVisualValue(v float64) {
	p.pushVisual(PoseDesign, v, false)
}

// PushAnimateVisualValue previews an animate value without recording history.
func (p *Property) PushAnimateVisualValue(v float64) {
	p.pushVisual(PoseAnimate, v, false)
}

func (p *Property) pushVisual(pose Pose, v float64, bulk bool) {
	if pose == PoseAnimate {
		p.animateVisual = v
	} else {
		p.designVisual = v
	}
	p.notify(bulk)
}

func (p *Property) applyDesign(v float64, bulk bool) {
	p.design = v
	p.refresh()
	p.notify(bulk)
}

func (p *Property) applyIncrement(v float64, bulk bool) {
	p.increment = v
	p.refresh()
	p.notify(bulk)
}

// restore sets both stored values without notifying.
func (p *Property) restore(s document.PropertyState) {
	p.design = s.Design
	p.increment = s.Animate
	p.refresh()
}

// assignDesign is used by operators decomposing a matrix. The caller
// publishes once the whole node is updated.
func (p *Property) assignDesign(v float64) {
	p.design = v
	p.refresh()
}

func (p *Property) refresh() {
	p.designVisual = p.design
	p.animateVisual = p.NetAnimateValue()
}

func (p *Property) notify(bulk bool) {
	t := p.node.tree
	t.bus.Publish(bus.NodePropertyValueChanged{Node: p.node.id, Property: p.typ, BulkUpdate: bulk})
	if p.typ.IsTransform() {
		t.transformChanged(p.node, bulk)
	}
}
