package api

import (
	"net/http"

	"github.com/dkozyrev/matcorner/internal/coach"
	"github.com/dkozyrev/matcorner/internal/prompt"
)

type planRequest struct {
	Subject  string `json:"subject"`
	MMA      bool   `json:"mma"`
	Keywords string `json:"keywords"`
}

func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	plan, err := h.coach.GeneratePlan(r.Context(), sessionID(r), coach.PlanInput{
		Subject:  prompt.Subject(req.Subject),
		MMA:      req.MMA,
		Keywords: req.Keywords,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"plan": plan})
}

type analyzeRequest struct {
	Subject  string   `json:"subject"`
	MMA      bool     `json:"mma"`
	Keywords string   `json:"keywords"`
	Start    *float64 `json:"start_seconds,omitempty"`
	End      *float64 `json:"end_seconds,omitempty"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	analysis, err := h.coach.AnalyzeMatch(r.Context(), sessionID(r), coach.AnalyzeInput{
		Subject:  prompt.Subject(req.Subject),
		MMA:      req.MMA,
		Keywords: req.Keywords,
		Start:    req.Start,
		End:      req.End,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"analysis": analysis})
}

type flowChartRequest struct {
	Measurables   string `json:"measurables"`
	Position      string `json:"position"`
	MMA           bool   `json:"mma"`
	FavoriteIdeas string `json:"favorite_ideas"`
}

func (r flowChartRequest) input() coach.FlowChartInput {
	return coach.FlowChartInput{
		Measurables:   r.Measurables,
		Position:      prompt.Subject(r.Position),
		MMA:           r.MMA,
		FavoriteIdeas: r.FavoriteIdeas,
	}
}

func (h *Handler) handleFlowChart(w http.ResponseWriter, r *http.Request) {
	var req flowChartRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	diagramText, err := h.coach.GenerateFlowChart(r.Context(), sessionID(r), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"diagram": diagramText})
}

func (h *Handler) handleFlowChartImage(w http.ResponseWriter, r *http.Request) {
	var req flowChartRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	img, err := h.coach.GenerateFlowChartImage(r.Context(), sessionID(r), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{
		"image_path":     img.Path,
		"revised_prompt": img.RevisedPrompt,
	})
}

type measurementsRequest struct {
	PositionDescriptor string `json:"position_descriptor"`
}

func (h *Handler) handleMeasurements(w http.ResponseWriter, r *http.Request) {
	var req measurementsRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	summary, err := h.coach.EstimateMeasurements(r.Context(), sessionID(r), req.PositionDescriptor)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"measurables": summary})
}

type moveRequest struct {
	Move string `json:"move"`
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	result, err := h.coach.Move(r.Context(), sessionID(r), req.Move)
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

func (h *Handler) handleDiagram(w http.ResponseWriter, r *http.Request) {
	diagramText, edges, err := h.coach.Diagram(sessionID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"diagram": diagramText,
		"edges":   edges,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.coach.History(sessionID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"history": history})
}
