// Package coach orchestrates prompt building, generative AI calls and
// diagram navigation on top of the session state.
package coach

import (
	"context"
	"iter"
	"log/slog"
	"os"
	"time"

	"github.com/dkozyrev/matcorner/internal/ai"
	"github.com/dkozyrev/matcorner/internal/diagram"
	"github.com/dkozyrev/matcorner/internal/domain"
	"github.com/dkozyrev/matcorner/internal/metrics"
	"github.com/dkozyrev/matcorner/internal/prompt"
	"github.com/dkozyrev/matcorner/internal/session"
)

// SegmentExtractor trims a video to a time range. Implemented by
// video.Extractor; substituted in tests.
type SegmentExtractor interface {
	ExtractSegment(ctx context.Context, inputPath string, start, end float64) (string, error)
}

// Service is the flow controller: it sequences prompt construction, external
// AI calls and diagram navigation, and mutates session state only after a
// call succeeds. Failures surface to the caller with the session unchanged.
type Service struct {
	gen       ai.Generator
	extractor SegmentExtractor
	sessions  *session.Manager
}

// NewService creates the flow controller.
func NewService(gen ai.Generator, extractor SegmentExtractor, sessions *session.Manager) *Service {
	return &Service{gen: gen, extractor: extractor, sessions: sessions}
}

func (s *Service) session(id string) (*domain.Session, error) {
	sess := s.sessions.Get(id)
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	sess.Touch()
	return sess, nil
}

// timed wraps an AI call with duration and status metrics.
func timed(op string, call func() (string, error)) (string, error) {
	start := time.Now()
	result, err := call()
	metrics.AICallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AICallsTotal.WithLabelValues(op, "error").Inc()
		return "", err
	}
	metrics.AICallsTotal.WithLabelValues(op, "ok").Inc()
	return result, nil
}

// PlanInput parameterizes a next-moves recommendation.
type PlanInput struct {
	Subject  prompt.Subject
	MMA      bool
	Keywords string
}

// GeneratePlan analyzes the session's uploaded image and recommends the next
// immediate steps.
func (s *Service) GeneratePlan(ctx context.Context, sessionID string, in PlanInput) (string, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return "", err
	}
	imagePath := sess.ImagePath()
	if imagePath == "" {
		return "", inputErrorf("no image uploaded")
	}
	if !in.Subject.Valid() {
		return "", inputErrorf("subject must be top, bottom or both")
	}

	p := prompt.GrapplingPlan(prompt.PlanParams{Subject: in.Subject, MMA: in.MMA, Keywords: in.Keywords})
	return timed("plan", func() (string, error) {
		return s.gen.DescribeImage(ctx, imagePath, p)
	})
}

// AnalyzeInput parameterizes a match video analysis. When both Start and End
// are set the video is trimmed to that range first.
type AnalyzeInput struct {
	Subject  prompt.Subject
	MMA      bool
	Keywords string
	Start    *float64
	End      *float64
}

// AnalyzeMatch analyzes the session's uploaded video. A failed trim falls
// back to the original, untrimmed video rather than aborting the analysis.
func (s *Service) AnalyzeMatch(ctx context.Context, sessionID string, in AnalyzeInput) (string, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return "", err
	}
	videoPath := sess.VideoPath()
	if videoPath == "" {
		return "", inputErrorf("no video uploaded")
	}
	if !in.Subject.Valid() {
		return "", inputErrorf("subject must be top, bottom or both")
	}

	videoToAnalyze := videoPath
	if in.Start != nil && in.End != nil {
		segmentPath, err := s.extractor.ExtractSegment(ctx, videoPath, *in.Start, *in.End)
		if err != nil {
			metrics.SegmentExtractionsTotal.WithLabelValues("error").Inc()
			slog.Warn("segment extraction failed, analyzing full video",
				"session_id", sessionID, "error", err)
		} else {
			metrics.SegmentExtractionsTotal.WithLabelValues("ok").Inc()
			videoToAnalyze = segmentPath
			defer func() {
				if err := os.Remove(segmentPath); err != nil && !os.IsNotExist(err) {
					slog.Warn("failed to remove trimmed segment", "path", segmentPath, "error", err)
				}
			}()
		}
	}

	p := prompt.MatchAnalysis(prompt.AnalysisParams{Subject: in.Subject, MMA: in.MMA, Keywords: in.Keywords})
	return timed("analyze", func() (string, error) {
		return s.gen.DescribeVideo(ctx, videoToAnalyze, p)
	})
}

// FlowChartInput parameterizes flow-chart generation. An empty Measurables
// falls back to the session's estimated attributes.
type FlowChartInput struct {
	Measurables   string
	Position      prompt.Subject
	MMA           bool
	FavoriteIdeas string
}

func (s *Service) flowChartParams(sess *domain.Session, in FlowChartInput) (prompt.FlowChartParams, error) {
	measurables := in.Measurables
	if measurables == "" {
		measurables = sess.Attributes()
	}
	if measurables == "" {
		return prompt.FlowChartParams{}, inputErrorf("no athlete measurables: provide them or estimate from an image first")
	}
	if !in.Position.Valid() {
		return prompt.FlowChartParams{}, inputErrorf("position must be top, bottom or both")
	}
	return prompt.FlowChartParams{
		Measurables:   measurables,
		Position:      in.Position,
		MMA:           in.MMA,
		FavoriteIdeas: in.FavoriteIdeas,
	}, nil
}

// GenerateFlowChart generates a navigable Mermaid flow chart of moves for
// the athlete and stores it as the session's current diagram.
func (s *Service) GenerateFlowChart(ctx context.Context, sessionID string, in FlowChartInput) (string, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return "", err
	}
	params, err := s.flowChartParams(sess, in)
	if err != nil {
		return "", err
	}

	diagramText, err := timed("flowchart", func() (string, error) {
		return s.gen.GenerateText(ctx, prompt.MermaidFlowChart(params), "")
	})
	if err != nil {
		return "", err
	}

	sess.SetFlowChart(diagramText, domain.FlowChartRequest{
		Measurables:   params.Measurables,
		Position:      string(params.Position),
		MMA:           params.MMA,
		FavoriteIdeas: params.FavoriteIdeas,
	})
	return diagramText, nil
}

// GenerateFlowChartImage renders the flow chart as an image instead of a
// navigable diagram, returning the image location and the revised prompt the
// service rendered.
func (s *Service) GenerateFlowChartImage(ctx context.Context, sessionID string, in FlowChartInput) (ai.GeneratedImage, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return ai.GeneratedImage{}, err
	}
	params, err := s.flowChartParams(sess, in)
	if err != nil {
		return ai.GeneratedImage{}, err
	}

	start := time.Now()
	img, err := s.gen.GenerateImage(ctx, prompt.FlowChart(params))
	metrics.AICallDuration.WithLabelValues("flowchart_image").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AICallsTotal.WithLabelValues("flowchart_image", "error").Inc()
		return ai.GeneratedImage{}, err
	}
	metrics.AICallsTotal.WithLabelValues("flowchart_image", "ok").Inc()
	return img, nil
}

// MoveResult reports the outcome of a navigation action.
type MoveResult struct {
	// Moved is false when no edge matched the chosen move; the diagram is
	// then unchanged and the caller should tell the user, not error out.
	Moved bool `json:"moved"`
	// Node is the resolved position label when Moved is true.
	Node string `json:"node,omitempty"`
	// Diagram is the current diagram after the action.
	Diagram string `json:"diagram"`
}

// Move resolves a chosen move against the current diagram. On a hit the
// diagram is regenerated recentered on the resolved node; if that
// regeneration fails the old diagram stays in place (no partial swap).
func (s *Service) Move(ctx context.Context, sessionID, moveText string) (MoveResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return MoveResult{}, err
	}
	if moveText == "" {
		return MoveResult{}, inputErrorf("move text is required")
	}
	if !sess.HasDiagram() {
		return MoveResult{}, inputErrorf("no diagram: generate a flow chart first")
	}

	current := sess.Diagram()
	node, ok := diagram.ResolveNextNode(current, moveText)
	if !ok {
		metrics.NavigationTotal.WithLabelValues("miss").Inc()
		return MoveResult{Moved: false, Diagram: current}, nil
	}
	metrics.NavigationTotal.WithLabelValues("hit").Inc()

	params := prompt.FlowChartParams{Measurables: sess.Attributes(), Position: prompt.SubjectBoth, MMA: true}
	if fc, ok := sess.LastFlowChart(); ok {
		params = prompt.FlowChartParams{
			Measurables:   fc.Measurables,
			Position:      prompt.Subject(fc.Position),
			MMA:           fc.MMA,
			FavoriteIdeas: fc.FavoriteIdeas,
		}
	}

	newDiagram, err := timed("move", func() (string, error) {
		return s.gen.GenerateText(ctx, prompt.RecenteredFlowChart(node, params), "")
	})
	if err != nil {
		return MoveResult{}, err
	}

	sess.SetDiagram(newDiagram)
	return MoveResult{Moved: true, Node: node, Diagram: newDiagram}, nil
}

// Diagram returns the session's current diagram and its parsed edge list.
func (s *Service) Diagram(sessionID string) (string, []diagram.Edge, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return "", nil, err
	}
	current := sess.Diagram()
	return current, diagram.Parse(current), nil
}

// PersonaChat continues a motivational conversation with a famous martial
// artist persona, streaming response chunks. Switching persona resets the
// conversation. The user message is appended to the history up front; the
// assistant message is appended only once the stream completes cleanly.
func (s *Service) PersonaChat(ctx context.Context, sessionID, personaName, message string) (iter.Seq2[string, error], error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if personaName == "" {
		return nil, inputErrorf("persona name is required")
	}
	if message == "" {
		return nil, inputErrorf("message is required")
	}

	instructions := prompt.PersonaInstructions(personaName)
	history := sess.StartChatTurn(personaName, message)

	start := time.Now()
	stream := s.gen.Chat(ctx, history, message, instructions)

	return func(yield func(string, error) bool) {
		var assistant []byte
		failed := false
		for chunk, err := range stream {
			if err != nil {
				failed = true
				metrics.AICallsTotal.WithLabelValues("chat", "error").Inc()
				yield("", err)
				return
			}
			assistant = append(assistant, chunk...)
			if !yield(chunk, nil) {
				failed = true
				break
			}
		}
		metrics.AICallDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())
		if !failed {
			metrics.AICallsTotal.WithLabelValues("chat", "ok").Inc()
			sess.AppendMessage(domain.RoleAssistant, string(assistant))
		}
	}, nil
}

// EstimateMeasurements estimates the athlete's height, weight and build from
// the session's uploaded image and stores the summary on the session.
func (s *Service) EstimateMeasurements(ctx context.Context, sessionID, positionDescriptor string) (string, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return "", err
	}
	imagePath := sess.ImagePath()
	if imagePath == "" {
		return "", inputErrorf("no image uploaded")
	}

	summary, err := timed("measurements", func() (string, error) {
		return s.gen.DescribeImage(ctx, imagePath, prompt.MeasurementEstimate(positionDescriptor))
	})
	if err != nil {
		return "", err
	}

	sess.SetAttributes(summary)
	return summary, nil
}

// AttachImage records an uploaded image on the session.
func (s *Service) AttachImage(sessionID, path string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	sess.SetImagePath(path)
	return nil
}

// AttachVideo records an uploaded video on the session.
func (s *Service) AttachVideo(sessionID, path string) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	sess.SetVideoPath(path)
	return nil
}

// History returns the session's chat history.
func (s *Service) History(sessionID string) ([]domain.ChatMessage, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.History(), nil
}
