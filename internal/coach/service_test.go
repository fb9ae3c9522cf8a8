package coach

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkozyrev/matcorner/internal/ai"
	"github.com/dkozyrev/matcorner/internal/domain"
	"github.com/dkozyrev/matcorner/internal/prompt"
	"github.com/dkozyrev/matcorner/internal/session"
)

// fakeGenerator is an in-process stand-in for the AI service. It records the
// prompts it receives and replays canned responses.
type fakeGenerator struct {
	lastPrompt       string
	lastInstructions string
	lastMediaPath    string

	textResponse  string
	textErr       error
	chatChunks    []string
	chatErr       error
	image         ai.GeneratedImage
	imageErr      error
	textResponses []string // consumed in order when set, overrides textResponse
}

func (f *fakeGenerator) DescribeImage(_ context.Context, imagePath, p string) (string, error) {
	f.lastMediaPath = imagePath
	f.lastPrompt = p
	return f.nextText()
}

func (f *fakeGenerator) DescribeVideo(_ context.Context, videoPath, p string) (string, error) {
	f.lastMediaPath = videoPath
	f.lastPrompt = p
	return f.nextText()
}

func (f *fakeGenerator) GenerateText(_ context.Context, p, instructions string) (string, error) {
	f.lastPrompt = p
	f.lastInstructions = instructions
	return f.nextText()
}

func (f *fakeGenerator) Chat(_ context.Context, _ []domain.ChatMessage, message, instructions string) iter.Seq2[string, error] {
	f.lastPrompt = message
	f.lastInstructions = instructions
	return func(yield func(string, error) bool) {
		if f.chatErr != nil {
			yield("", f.chatErr)
			return
		}
		for _, chunk := range f.chatChunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func (f *fakeGenerator) GenerateImage(_ context.Context, p string) (ai.GeneratedImage, error) {
	f.lastPrompt = p
	return f.image, f.imageErr
}

func (f *fakeGenerator) nextText() (string, error) {
	if f.textErr != nil {
		return "", f.textErr
	}
	if len(f.textResponses) > 0 {
		next := f.textResponses[0]
		f.textResponses = f.textResponses[1:]
		return next, nil
	}
	return f.textResponse, nil
}

// fakeExtractor satisfies SegmentExtractor without shelling out to ffmpeg.
type fakeExtractor struct {
	output string
	err    error
	calls  int
}

func (f *fakeExtractor) ExtractSegment(_ context.Context, inputPath string, start, end float64) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func newTestService(t *testing.T, gen *fakeGenerator, ext *fakeExtractor) (*Service, string) {
	t.Helper()
	mgr := session.NewManager(t.TempDir())
	sess, err := mgr.Create()
	require.NoError(t, err)
	return NewService(gen, ext, mgr), sess.ID
}

func ptr(f float64) *float64 { return &f }

func TestGeneratePlanRequiresImage(t *testing.T) {
	svc, id := newTestService(t, &fakeGenerator{}, &fakeExtractor{})

	_, err := svc.GeneratePlan(context.Background(), id, PlanInput{Subject: prompt.SubjectTop})

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
}

func TestGeneratePlanEndToEndPrompt(t *testing.T) {
	gen := &fakeGenerator{textResponse: "1) posture up : towards guard break"}
	svc, id := newTestService(t, gen, &fakeExtractor{})
	require.NoError(t, svc.AttachImage(id, "/tmp/closed-guard.jpg"))

	got, err := svc.GeneratePlan(context.Background(), id, PlanInput{
		Subject:  prompt.SubjectTop,
		MMA:      true,
		Keywords: "closed guard, heavy pressure",
	})
	require.NoError(t, err)
	assert.Equal(t, "1) posture up : towards guard break", got)

	// Exactly one recommendation prompt carrying all four required pieces.
	assert.Equal(t, "/tmp/closed-guard.jpg", gen.lastMediaPath)
	assert.Contains(t, gen.lastPrompt, "closed guard")
	assert.Contains(t, gen.lastPrompt, "heavy pressure")
	assert.Contains(t, gen.lastPrompt, "MMA")
	assert.Contains(t, gen.lastPrompt, "quick bullet format")
}

func TestGeneratePlanUnknownSession(t *testing.T) {
	svc, _ := newTestService(t, &fakeGenerator{}, &fakeExtractor{})

	_, err := svc.GeneratePlan(context.Background(), "missing", PlanInput{Subject: prompt.SubjectTop})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAnalyzeMatchTrimsWhenRangeGiven(t *testing.T) {
	dir := t.TempDir()
	segment := filepath.Join(dir, "match_segment.mp4")
	require.NoError(t, os.WriteFile(segment, []byte("frames"), 0o644))

	gen := &fakeGenerator{textResponse: "analysis"}
	ext := &fakeExtractor{output: segment}
	svc, id := newTestService(t, gen, ext)
	require.NoError(t, svc.AttachVideo(id, filepath.Join(dir, "match.mp4")))

	_, err := svc.AnalyzeMatch(context.Background(), id, AnalyzeInput{
		Subject: prompt.SubjectBottom,
		Start:   ptr(5),
		End:     ptr(20),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, ext.calls)
	assert.Equal(t, segment, gen.lastMediaPath)
	// The trimmed segment is deleted once the analysis is done.
	_, statErr := os.Stat(segment)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAnalyzeMatchFallsBackToFullVideoOnTrimFailure(t *testing.T) {
	gen := &fakeGenerator{textResponse: "analysis"}
	ext := &fakeExtractor{err: fmt.Errorf("ffmpeg exploded")}
	svc, id := newTestService(t, gen, ext)
	require.NoError(t, svc.AttachVideo(id, "/tmp/match.mp4"))

	got, err := svc.AnalyzeMatch(context.Background(), id, AnalyzeInput{
		Subject: prompt.SubjectBoth,
		Start:   ptr(1),
		End:     ptr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "analysis", got)
	assert.Equal(t, "/tmp/match.mp4", gen.lastMediaPath)
}

func TestAnalyzeMatchSkipsTrimWithoutRange(t *testing.T) {
	gen := &fakeGenerator{textResponse: "analysis"}
	ext := &fakeExtractor{}
	svc, id := newTestService(t, gen, ext)
	require.NoError(t, svc.AttachVideo(id, "/tmp/match.mp4"))

	_, err := svc.AnalyzeMatch(context.Background(), id, AnalyzeInput{Subject: prompt.SubjectTop, Start: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, 0, ext.calls)
}

func TestGenerateFlowChartStoresDiagram(t *testing.T) {
	const chart = "graph TD\nClosed Guard --> Mount[pass guard]"
	gen := &fakeGenerator{textResponse: chart}
	svc, id := newTestService(t, gen, &fakeExtractor{})

	got, err := svc.GenerateFlowChart(context.Background(), id, FlowChartInput{
		Measurables: "6ft, 180lbs, long limbs",
		Position:    prompt.SubjectBottom,
		MMA:         false,
	})
	require.NoError(t, err)
	assert.Equal(t, chart, got)

	current, edges, err := svc.Diagram(id)
	require.NoError(t, err)
	assert.Equal(t, chart, current)
	require.Len(t, edges, 1)
	assert.Equal(t, "Mount", edges[0].Target)
}

func TestGenerateFlowChartRequiresMeasurables(t *testing.T) {
	svc, id := newTestService(t, &fakeGenerator{}, &fakeExtractor{})

	_, err := svc.GenerateFlowChart(context.Background(), id, FlowChartInput{Position: prompt.SubjectBoth})

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
}

func TestGenerateFlowChartImage(t *testing.T) {
	gen := &fakeGenerator{image: ai.GeneratedImage{Path: "/tmp/chart.png", RevisedPrompt: "a flow chart"}}
	svc, id := newTestService(t, gen, &fakeExtractor{})

	img, err := svc.GenerateFlowChartImage(context.Background(), id, FlowChartInput{
		Measurables: "5'9\" 155lbs",
		Position:    prompt.SubjectTop,
		MMA:         true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/chart.png", img.Path)
	assert.Equal(t, "a flow chart", img.RevisedPrompt)
	assert.Contains(t, gen.lastPrompt, "visual flow chart")
}

func TestMoveRegeneratesDiagramOnHit(t *testing.T) {
	const next = "graph TD\nMount --> Back Control[gift wrap]"
	gen := &fakeGenerator{textResponses: []string{
		"graph TD\nClosed Guard --> Mount[pass guard]",
		next,
	}}
	svc, id := newTestService(t, gen, &fakeExtractor{})

	_, err := svc.GenerateFlowChart(context.Background(), id, FlowChartInput{
		Measurables: "6ft", Position: prompt.SubjectBoth, MMA: true,
	})
	require.NoError(t, err)

	result, err := svc.Move(context.Background(), id, "pass guard")
	require.NoError(t, err)
	assert.True(t, result.Moved)
	assert.Equal(t, "Mount", result.Node)
	assert.Equal(t, next, result.Diagram)
	assert.Contains(t, gen.lastPrompt, "starting from the Mount position")
}

func TestMoveMissLeavesDiagramUnchanged(t *testing.T) {
	const chart = "graph TD\nA --> B[pass guard]\nB --> C[mount]"
	gen := &fakeGenerator{textResponse: chart}
	svc, id := newTestService(t, gen, &fakeExtractor{})

	_, err := svc.GenerateFlowChart(context.Background(), id, FlowChartInput{
		Measurables: "6ft", Position: prompt.SubjectBoth, MMA: true,
	})
	require.NoError(t, err)

	result, err := svc.Move(context.Background(), id, "submission")
	require.NoError(t, err)
	assert.False(t, result.Moved)
	assert.Equal(t, chart, result.Diagram)
}

func TestMoveKeepsOldDiagramWhenRegenerationFails(t *testing.T) {
	const chart = "graph TD\nA --> B[pass guard]"
	gen := &fakeGenerator{textResponses: []string{chart}}
	svc, id := newTestService(t, gen, &fakeExtractor{})

	_, err := svc.GenerateFlowChart(context.Background(), id, FlowChartInput{
		Measurables: "6ft", Position: prompt.SubjectBoth, MMA: true,
	})
	require.NoError(t, err)

	gen.textErr = &ai.ServiceError{Op: "generate_text", Err: errors.New("quota")}
	_, err = svc.Move(context.Background(), id, "pass guard")
	require.Error(t, err)

	current, _, err := svc.Diagram(id)
	require.NoError(t, err)
	assert.Equal(t, chart, current, "failed regeneration must not swap the diagram")
}

func TestMoveWithoutDiagram(t *testing.T) {
	svc, id := newTestService(t, &fakeGenerator{}, &fakeExtractor{})

	_, err := svc.Move(context.Background(), id, "pass guard")

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
}

func TestPersonaChatAppendsHistoryAfterStream(t *testing.T) {
	gen := &fakeGenerator{chatChunks: []string{"Keep ", "rolling!"}}
	svc, id := newTestService(t, gen, &fakeExtractor{})

	stream, err := svc.PersonaChat(context.Background(), id, "Rickson Gracie", "How do I improve my base?")
	require.NoError(t, err)

	var full strings.Builder
	for chunk, err := range stream {
		require.NoError(t, err)
		full.WriteString(chunk)
	}
	assert.Equal(t, "Keep rolling!", full.String())
	assert.Contains(t, gen.lastInstructions, "Rickson Gracie")

	history, err := svc.History(id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "How do I improve my base?", history[0].Content)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.Equal(t, "Keep rolling!", history[1].Content)
}

func TestPersonaChatFailedStreamOmitsAssistantMessage(t *testing.T) {
	gen := &fakeGenerator{chatErr: &ai.ServiceError{Op: "chat", Err: errors.New("network")}}
	svc, id := newTestService(t, gen, &fakeExtractor{})

	stream, err := svc.PersonaChat(context.Background(), id, "Helio Gracie", "hello")
	require.NoError(t, err)

	var streamErr error
	for _, err := range stream {
		if err != nil {
			streamErr = err
		}
	}
	require.Error(t, streamErr)

	history, err := svc.History(id)
	require.NoError(t, err)
	require.Len(t, history, 1, "only the user message should be recorded")
	assert.Equal(t, domain.RoleUser, history[0].Role)
}

func TestPersonaChatSwitchResetsHistory(t *testing.T) {
	gen := &fakeGenerator{chatChunks: []string{"oss"}}
	svc, id := newTestService(t, gen, &fakeExtractor{})

	stream, err := svc.PersonaChat(context.Background(), id, "Rickson Gracie", "hi")
	require.NoError(t, err)
	for range stream {
	}

	stream, err = svc.PersonaChat(context.Background(), id, "Helio Gracie", "hi again")
	require.NoError(t, err)
	for range stream {
	}

	history, err := svc.History(id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hi again", history[0].Content)
}

func TestEstimateMeasurementsStoresAttributes(t *testing.T) {
	gen := &fakeGenerator{textResponse: "6'1\", 195lbs, mesomorph"}
	svc, id := newTestService(t, gen, &fakeExtractor{})
	require.NoError(t, svc.AttachImage(id, "/tmp/athlete.jpg"))

	got, err := svc.EstimateMeasurements(context.Background(), id, "on the left")
	require.NoError(t, err)
	assert.Equal(t, "6'1\", 195lbs, mesomorph", got)
	assert.Contains(t, gen.lastPrompt, "athlete on the left's")

	// Flow chart generation now works without explicit measurables.
	gen.textResponse = "graph TD\nA --> B[sweep]"
	_, err = svc.GenerateFlowChart(context.Background(), id, FlowChartInput{Position: prompt.SubjectBoth, MMA: true})
	require.NoError(t, err)
	assert.Contains(t, gen.lastPrompt, "mesomorph")
}
