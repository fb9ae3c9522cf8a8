// Package domain holds the core value types shared across the service.
package domain

import (
	"sync"
	"time"
)

// Session holds the transient state for one user interaction sequence.
// It lives in memory only: created when the UI starts a session, deleted
// when the session ends or expires. A session is touched concurrently by
// HTTP handlers, the chat WebSocket stream and the TTL sweeper, so all
// mutable state is guarded by its own mutex and accessed through methods.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.RWMutex
	lastActive time.Time

	// Uploaded assets, stored under the session's temp directory.
	imagePath string
	videoPath string

	// Current flow-chart diagram as a Mermaid-style edge list. Empty until
	// the first flow chart is generated (the Idle state).
	diagram string

	// attributes is the latest measurement-estimate summary for the athlete.
	attributes string

	// personaName is the martial artist the chat currently impersonates.
	personaName string

	// lastFlowChart remembers the parameters of the most recent flow-chart
	// generation so navigation can regenerate the chart recentered on a new
	// position with the same athlete profile.
	lastFlowChart *FlowChartRequest

	// chatHistory is append-only within a conversation; it is never
	// reordered or pruned.
	chatHistory []ChatMessage
}

// FlowChartRequest captures the athlete profile a flow chart was generated
// for.
type FlowChartRequest struct {
	Measurables   string
	Position      string
	MMA           bool
	FavoriteIdeas string
}

// NewSession creates a session that counts as active right now.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, CreatedAt: now, lastActive: now}
}

// Touch updates the last-activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
}

// LastActive returns the last-activity timestamp.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// SetLastActive overrides the last-activity timestamp.
func (s *Session) SetLastActive(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = t
}

// SetImagePath records the uploaded image location.
func (s *Session) SetImagePath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imagePath = path
}

// ImagePath returns the uploaded image location, empty if none.
func (s *Session) ImagePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.imagePath
}

// SetVideoPath records the uploaded video location.
func (s *Session) SetVideoPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videoPath = path
}

// VideoPath returns the uploaded video location, empty if none.
func (s *Session) VideoPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.videoPath
}

// SetDiagram replaces the current diagram.
func (s *Session) SetDiagram(diagram string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagram = diagram
}

// SetFlowChart replaces the current diagram together with the request that
// produced it, in one step.
func (s *Session) SetFlowChart(diagram string, req FlowChartRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagram = diagram
	s.lastFlowChart = &req
}

// Diagram returns the current diagram, empty until the first flow chart.
func (s *Session) Diagram() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diagram
}

// HasDiagram reports whether navigation actions are accepted.
func (s *Session) HasDiagram() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diagram != ""
}

// LastFlowChart returns the request behind the most recent flow chart.
func (s *Session) LastFlowChart() (FlowChartRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastFlowChart == nil {
		return FlowChartRequest{}, false
	}
	return *s.lastFlowChart, true
}

// SetAttributes records the measurement-estimate summary for the athlete.
func (s *Session) SetAttributes(attributes string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributes = attributes
}

// Attributes returns the latest measurement-estimate summary.
func (s *Session) Attributes() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attributes
}

// StartChatTurn records a user message and returns the history that preceded
// it. Addressing a different persona than the current one resets the
// conversation first. The switch, the reset and the append happen under one
// lock so concurrent turns cannot interleave them.
func (s *Session) StartChatTurn(personaName, message string) []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.personaName != personaName {
		s.personaName = personaName
		s.chatHistory = nil
	}
	prior := make([]ChatMessage, len(s.chatHistory))
	copy(prior, s.chatHistory)
	s.chatHistory = append(s.chatHistory, ChatMessage{Role: RoleUser, Content: message})
	return prior
}

// AppendMessage adds a message to the chat history.
func (s *Session) AppendMessage(role Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatHistory = append(s.chatHistory, ChatMessage{Role: role, Content: content})
}

// History returns a copy of the chat history.
func (s *Session) History() []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := make([]ChatMessage, len(s.chatHistory))
	copy(history, s.chatHistory)
	return history
}
