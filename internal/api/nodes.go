package api

import (
	"net/http"
	"strings"

	"github.com/inamate/rig/internal/document"
	"github.com/inamate/rig/internal/engine"
)

type addNodeRequest struct {
	Kind   document.NodeKind `json:"kind"`
	Parent document.NodeID   `json:"parent"`
	Name   string            `json:"name"`
	Asset  string            `json:"asset"`
}

type nodeResponse struct {
	document.NodeSnapshot
	Global   [6]float64        `json:"global"`
	Children []document.NodeID `json:"children"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type moveRequest struct {
	Parent document.NodeID `json:"parent"`
	Index  *int            `json:"index"`
}

type drawOrderRequest struct {
	Index int `json:"index"`
}

// propertyRequest sets either value; both may be given.
type propertyRequest struct {
	Design  *float64 `json:"design"`
	Animate *float64 `json:"animate"`
}

type propertyResponse struct {
	Type          document.PropertyType `json:"type"`
	Design        float64               `json:"design"`
	Increment     float64               `json:"increment"`
	Animate       float64               `json:"animate"`
	DesignVisual  float64               `json:"designVisual"`
	AnimateVisual float64               `json:"animateVisual"`
}

type resetRequest struct {
	Nodes []document.NodeID `json:"nodes"`
}

func (h *Handler) node(id document.NodeID) (nodeResponse, error) {
	n, err := h.engine.Node(id)
	if err != nil {
		return nodeResponse{}, err
	}
	global, _ := h.engine.GlobalTransform(id)
	return nodeResponse{
		NodeSnapshot: n.Snapshot(),
		Global:       global.Affine(),
		Children:     n.Children(),
	}, nil
}

func (h *Handler) AddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var (
		id  document.NodeID
		err error
	)
	switch req.Kind {
	case document.KindBone:
		id, err = h.engine.AddBone(req.Parent, req.Name)
	case document.KindSprite:
		if req.Asset == "" {
			writeError(w, http.StatusBadRequest, "asset is required for sprites")
			return
		}
		id, err = h.engine.AddSprite(req.Parent, req.Name, req.Asset)
	default:
		writeError(w, http.StatusBadRequest, "kind must be bone or sprite")
		return
	}
	if err != nil {
		h.handleEngineError(w, err)
		return
	}

	resp, err := h.node(id)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetNode(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	resp, err := h.node(nodeID(r))
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RenameNode(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	id := nodeID(r)
	if err := h.engine.RenameNode(id, req.Name); err != nil {
		h.handleEngineError(w, err)
		return
	}
	resp, _ := h.node(id)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RemoveNode(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.engine.RemoveNode(nodeID(r)); err != nil {
		h.handleEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MoveNode(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	index := -1
	if req.Index != nil {
		index = *req.Index
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	id := nodeID(r)
	if err := h.engine.MoveNode(id, req.Parent, index); err != nil {
		h.handleEngineError(w, err)
		return
	}
	resp, _ := h.node(id)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SetDrawOrder(w http.ResponseWriter, r *http.Request) {
	var req drawOrderRequest
	if !decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.engine.SetDrawOrder(nodeID(r), req.Index); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"drawOrder": h.engine.Tree().DrawOrder()})
}

func (h *Handler) SetProperty(w http.ResponseWriter, r *http.Request) {
	t, ok := propertyType(w, r)
	if !ok {
		return
	}
	var req propertyRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Design == nil && req.Animate == nil {
		writeError(w, http.StatusBadRequest, "design or animate is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := nodeID(r)
	p, err := h.engine.Property(id, t)
	if err != nil {
		h.handleEngineError(w, err)
		return
	}
	// Both values land in one undo step.
	u := h.engine.StartUnitOfWork("set " + string(t))
	if req.Design != nil {
		p.SetDesignValue(u, *req.Design)
	}
	if req.Animate != nil {
		p.SetAnimateValue(u, *req.Animate)
	}
	u.Commit()

	writeJSON(w, http.StatusOK, newPropertyResponse(p))
}

func newPropertyResponse(p *engine.Property) propertyResponse {
	return propertyResponse{
		Type:          p.Type(),
		Design:        p.DesignValue(),
		Increment:     p.AnimateIncrement(),
		Animate:       p.NetAnimateValue(),
		DesignVisual:  p.DesignVisualValue(),
		AnimateVisual: p.AnimateVisualValue(),
	}
}

func (h *Handler) ResetPose(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.engine.ResetAnimateValues(req.Nodes...); err != nil {
		h.handleEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.status())
}
